package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sectrack/internal/jobs"
)

var (
	bestEnergyType   string
	bestSegment      string
	bestContractType string
	bestLimit        int
)

// bestCmd refreshes and prints the cheapest contracts once.
var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Refresh and show the cheapest contracts",
	Long: `Queries the pricing API for the cheapest contracts matching the
given filter, stores the ranking and prints it.

Example:
  go run ./cmd/sectrack best
  go run ./cmd/sectrack best --energy-type Gas --limit 5`,
	RunE: runBest,
}

func init() {
	rootCmd.AddCommand(bestCmd)
	bestCmd.Flags().StringVar(&bestEnergyType, "energy-type", "All", "energy type filter (Elektriciteit|Gas|All)")
	bestCmd.Flags().StringVar(&bestSegment, "segment", "All", "segment filter (Woning|Onderneming|All)")
	bestCmd.Flags().StringVar(&bestContractType, "contract-type", "All", "contract type filter (Dynamisch|Variabel|Vast|All)")
	bestCmd.Flags().IntVar(&bestLimit, "limit", 3, "number of contracts to rank")
}

func runBest(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	if err := rt.api.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	job := jobs.NewBestContractsJob(rt.store, rt.api, rt.logger, rt.cfg.EntryID, rt.cfg.API.ZipCode)
	err = job.RunWithFilter(ctx, jobs.Filter{
		EnergyType:   bestEnergyType,
		Segment:      bestSegment,
		ContractType: bestContractType,
		Limit:        bestLimit,
	})
	if err != nil {
		return fmt.Errorf("refresh best contracts: %w", err)
	}

	top, err := rt.store.TopContracts(ctx, rt.cfg.EntryID)
	if err != nil {
		return err
	}

	fmt.Println("Cheapest contracts:")
	for _, tc := range top {
		fmt.Printf("  %2d. %s %s (%s, %s, %s)\n",
			tc.Rank, tc.Supplier, tc.ContractName, tc.PriceComponent, tc.EnergyType, tc.ContractType)
	}
	return nil
}
