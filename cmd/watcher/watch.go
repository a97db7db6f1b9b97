package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"joconde_watcher/internal/archive"
	"joconde_watcher/internal/domain"
	"joconde_watcher/internal/publisher"
	"joconde_watcher/internal/service"
	"joconde_watcher/internal/simulator"
	"joconde_watcher/internal/source/jsonfile"
	"joconde_watcher/internal/storage/sqldb"
	"joconde_watcher/internal/watcher"
)

func newWatchCmd(configPath *string) *cobra.Command {
	var simulate bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the input directory and load every new batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), *configPath, simulate)
		},
	}
	cmd.Flags().BoolVar(&simulate, "simulate", false, "also run the flow simulator into the input directory")
	return cmd
}

func runWatch(ctx context.Context, configPath string, simulate bool) error {
	cfg, logger, cleanup, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqldb.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()
	logger.Info("connected to database", "driver", cfg.Database.Driver)

	if err := sqldb.EnsureSchema(ctx, db, cfg.Staging.Table); err != nil {
		logger.Error("failed to prepare staging table", "error", err)
		return err
	}

	mover, err := archive.NewMover(cfg.Watch.ArchiveDirectory)
	if err != nil {
		logger.Error("failed to prepare archive directory", "error", err)
		return err
	}

	// Left as an untyped nil when disabled so the service skips publishing.
	var outcomes service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return err
		}
		defer rabbitMQ.Close()
		outcomes = rabbitMQ
	}

	ingest := service.NewIngestService(
		jsonfile.NewReader(),
		sqldb.NewNoticeStore(db, cfg.Staging.Table),
		sqldb.NewTransactionManager(db),
		mover,
		outcomes,
		logger,
		cfg.Watch,
		cfg.Audit,
	)

	w := watcher.New(cfg.Watch, func(ctx context.Context, file domain.IncomingFile) {
		ingest.Process(ctx, file)
	}, logger)

	var sim *simulator.Simulator
	if simulate {
		sim, err = simulator.New(cfg.Simulator, cfg.Watch.InputDirectory, logger)
		if err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down, finishing current file")
		w.Stop()
		return nil
	})

	// The watcher only ever returns through Stop, so a file in flight is
	// always finished first.
	g.Go(func() error {
		return w.Start(context.WithoutCancel(gCtx))
	})

	if sim != nil {
		g.Go(func() error {
			select {
			case <-w.Ready():
			case <-gCtx.Done():
				return nil
			}
			if _, err := sim.Run(gCtx); err != nil && gCtx.Err() == nil {
				return fmt.Errorf("simulate: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("watcher error", "error", err)
		return err
	}
	logger.Info("watcher exited")
	return nil
}
