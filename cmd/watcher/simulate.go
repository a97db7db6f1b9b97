package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"joconde_watcher/internal/simulator"
)

func newSimulateCmd(configPath *string) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Split the source export into paced batch files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if outputDir == "" {
				outputDir = cfg.Watch.InputDirectory
			}

			sim, err := simulator.New(cfg.Simulator, outputDir, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, err = sim.Run(ctx)
			return err
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write batch files to (default: watchdog.input_directory)")
	return cmd
}
