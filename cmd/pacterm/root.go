package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kajell/pacterm/internal/app"
)

var (
	flagConfig string
	flagData   string
	flagQuery  string
	flagDryRun bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pacterm",
		Short: "Terminal UI for searching, inspecting and staging Arch packages",
		Long: `pacterm is a terminal UI over the official Arch repositories and the AUR.

Search as you type, inspect package details and PKGBUILDs, stage installs,
removals and downgrades, and review the dependency, file, service and build
impact of the staged set before anything touches the system.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	root.PersistentFlags().StringVar(&flagData, "data-dir", "", "override cache and state directory")
	root.Flags().StringVarP(&flagQuery, "query", "q", "", "start with a search already typed")
	root.Flags().BoolVar(&flagDryRun, "dry-run", false, "print pacman commands instead of running them")

	root.AddCommand(newVersionCmd())
	return root
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return app.Run(ctx, app.Options{
		ConfigPath: flagConfig,
		DataDir:    flagData,
		Query:      flagQuery,
		DryRun:     flagDryRun,
	})
}
