package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lotledger/internal/cli"
	"github.com/example/lotledger/internal/version"
	"github.com/example/lotledger/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "lotledger",
		Short:   "Lot and serial identity ledger for tools, chemicals and kit expendables",
		Version: version.String(),
		Long: `lotledger tracks stocked items by part number and serial or lot number.
It enforces identifier uniqueness across item kinds, mints system lot numbers,
and splits lots into traceable child lots on partial issue and transfer.`,
		SilenceUsage: true,
	}

	var flags cli.GlobalFlags
	flags.Bind(rootCmd)

	// Stock movements
	rootCmd.AddCommand(cli.ReceiveCmd())
	rootCmd.AddCommand(cli.IssueCmd())
	rootCmd.AddCommand(cli.TransferCmd())
	rootCmd.AddCommand(cli.ReturnCmd())
	rootCmd.AddCommand(cli.SplitCmd())
	rootCmd.AddCommand(cli.ExpireCmd())

	// Lookups
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.LineageCmd())
	rootCmd.AddCommand(cli.LotCmd())

	// Developer tools
	rootCmd.AddCommand(cli.DevCmd())

	err := rootCmd.Execute()
	if cerr := wire.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
