package main

import (
	"github.com/spf13/cobra"

	"joconde_watcher/internal/storage/sqldb"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the staging table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			db, err := sqldb.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqldb.EnsureSchema(cmd.Context(), db, cfg.Staging.Table); err != nil {
				return err
			}

			logger.Info("staging table ready", "table", cfg.Staging.Table, "driver", cfg.Database.Driver)
			return nil
		},
	}
}
