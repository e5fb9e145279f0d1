package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sectrack",
	Short: "Smart Energy Control contract tracker",
	Long: `sectrack tracks Belgian energy contract prices through the Smart
Energy Control API: pick contracts with the configuration wizard, watch
their prices as live sensors, and keep a ranked table of the cheapest
offers.

Usage:
  go run ./cmd/sectrack [command]

Examples:
  go run ./cmd/sectrack start
  go run ./cmd/sectrack best --limit 3
  go run ./cmd/sectrack import contracts.json
  go run ./cmd/sectrack contracts list`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
