package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/sectrack/internal/importer"
)

// importCmd bulk-imports contracts from a JSON file.
var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Bulk-import contracts from a file",
	Long: `Reads a bulk-import payload from a JSON file and persists the
contracts and aliases it contains. Malformed entries are skipped.

The payload shape:
  {"contracts": [{"id": "Engie-_-Flex-_-Dynamisch-_-...", "alias": "dagprijs"}]}

Example:
  go run ./cmd/sectrack import contracts.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	var payload importer.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	imp := importer.New(rt.store, rt.logger, rt.cfg.EntryID)
	imported, skipped := imp.Import(context.Background(), payload.Contracts)

	fmt.Printf("Imported %d contracts, skipped %d\n", imported, skipped)
	return nil
}
