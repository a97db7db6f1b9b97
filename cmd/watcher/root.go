package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"joconde_watcher/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "joconde-watcher",
		Short: "Load Joconde batch files into the staging table as they arrive",
		Long: `Watches an input directory for Joconde JSON batch files, loads each one
into the staging table in a single transaction and moves it to the archive.

Examples:
  joconde-watcher --config config.yaml
  joconde-watcher watch --simulate
  joconde-watcher simulate
  joconde-watcher migrate`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	watch := newWatchCmd(&configPath)
	root.RunE = watch.RunE
	root.Flags().AddFlagSet(watch.Flags())

	root.AddCommand(watch, newSimulateCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

// bootstrap loads the config and builds the logger every command uses.
func bootstrap(configPath string) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog, err := config.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	cleanup := func() {
		_ = closeLog()
	}
	return cfg, logger, cleanup, nil
}
