package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lotledger/internal/config"
	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/wire"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development utilities",
		Long: `Development utilities for working with a scratch ledger database.

These commands require LOTLEDGER_DEV=1 so that fixtures never land in a
production ledger by accident.`,
	}

	cmd.AddCommand(devSeedCmd())
	cmd.AddCommand(devResetCmd())
	return cmd
}

func requireDevMode() error {
	if os.Getenv("LOTLEDGER_DEV") != "1" {
		return fmt.Errorf("LOTLEDGER_DEV not set - dev commands only run against scratch databases\n\nThis safety check prevents accidental changes to a production ledger")
	}
	if driver := wire.Config().Store.Driver; driver != config.DriverSQLite {
		return fmt.Errorf("dev commands require the sqlite driver (configured: %s)", driver)
	}
	return nil
}

func devSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load fixture items into the dev database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDevMode(); err != nil {
				return err
			}
			if err := db.SeedFixtures(wire.DB()); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Println("✓ Seeded fixtures")
			return nil
		},
	}
}

func devResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Recreate the dev database with fresh fixtures",
		Long: `Delete the dev database file and recreate it with the current schema
and fixture data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDevMode(); err != nil {
				return err
			}
			path := wire.Config().Store.Path

			if !force {
				fmt.Printf("This will delete and recreate: %s\n", path)
				fmt.Print("Continue? [y/N] ")
				var response string
				_, _ = fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := wire.Close(); err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete database: %w", err)
			}
			fmt.Printf("✓ Deleted %s\n", path)

			database, err := db.Open(path, wire.Config().Store.BusyTimeoutMS)
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			defer database.Close()
			fmt.Println("✓ Created fresh database with schema")

			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Println("✓ Seeded fixtures")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
