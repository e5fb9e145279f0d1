package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sectrack/internal/identifier"
)

// contractsCmd groups the contract management commands.
var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Manage tracked contracts",
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked contracts",
	RunE:  listContracts,
}

var contractsRemoveCmd = &cobra.Command{
	Use:   "remove [sensor_id]",
	Short: "Remove a tracked contract and its aliases",
	Args:  cobra.ExactArgs(1),
	RunE:  removeContract,
}

// aliasesCmd groups the alias management commands.
var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Manage custom sensor aliases",
}

var aliasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custom sensor aliases",
	RunE:  listAliases,
}

var aliasesRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a custom sensor alias",
	Args:  cobra.ExactArgs(1),
	RunE:  removeAlias,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsListCmd)
	contractsCmd.AddCommand(contractsRemoveCmd)

	rootCmd.AddCommand(aliasesCmd)
	aliasesCmd.AddCommand(aliasesListCmd)
	aliasesCmd.AddCommand(aliasesRemoveCmd)
}

func listContracts(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	contracts, err := rt.store.Contracts(context.Background(), rt.cfg.EntryID)
	if err != nil {
		return err
	}

	if len(contracts) == 0 {
		fmt.Println("No tracked contracts")
		return nil
	}

	fmt.Println("Tracked contracts:")
	for _, c := range contracts {
		label := c.SensorID
		if label == "" {
			label = "(not materialized)"
		}
		fmt.Printf("  %s\n    %s %s, %s (%s, %s, %s)",
			label, c.Supplier, c.ContractName, c.PriceComponent,
			c.EnergyType, c.ContractType, c.Segment)
		if c.Month != "" || c.Year != "" {
			fmt.Printf(" %s %s", c.Month, c.Year)
		}
		fmt.Println()
	}
	return nil
}

func removeContract(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	sensorID := args[0]
	if err := rt.store.RemoveContractBySensorID(context.Background(), sensorID); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", sensorID)
	return nil
}

func listAliases(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	aliases, err := rt.store.Aliases(context.Background(), rt.cfg.EntryID)
	if err != nil {
		return err
	}

	if len(aliases) == 0 {
		fmt.Println("No aliases")
		return nil
	}

	fmt.Println("Aliases:")
	for _, a := range aliases {
		fmt.Printf("  %s (%s) -> %s\n", a.Name, identifier.Label(a.Name), a.OriginalSensorID)
	}
	return nil
}

func removeAlias(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	name := args[0]
	if err := rt.store.RemoveAliasByName(context.Background(), name); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", name)
	return nil
}
