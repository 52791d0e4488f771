package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lotledger/internal/config"
	"github.com/example/lotledger/internal/ctxutil"
	"github.com/example/lotledger/internal/wire"
)

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile  string
	Actor       string
	ShowMetrics bool
}

// Bind registers the persistent flags on root and installs the hooks that
// configure wiring before a command runs and print counters after it.
func (g *GlobalFlags) Bind(root *cobra.Command) {
	root.PersistentFlags().StringVar(&g.ConfigFile, "config", "", "Config file (default: ~/.lotledger/config.yaml)")
	root.PersistentFlags().StringVar(&g.Actor, "actor", os.Getenv("USER"), "Actor recorded on movement events")
	root.PersistentFlags().BoolVar(&g.ShowMetrics, "metrics", false, "Print ledger counters after the command")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		wire.Configure(config.LoadOptions{ConfigFilePath: g.ConfigFile})
		cmd.SetContext(ctxutil.WithActorID(cmd.Context(), g.Actor))
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if !g.ShowMetrics {
			return nil
		}
		return PrintMetrics(cmd.OutOrStdout(), wire.Gatherer())
	}
}
