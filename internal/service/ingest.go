package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"joconde_watcher/internal/config"
	"joconde_watcher/internal/domain"
	"joconde_watcher/internal/timing"
)

// IngestService loads one batch file into the staging table and archives it.
type IngestService struct {
	reader    BatchReader
	notices   NoticeStore
	txManager TransactionManager
	archiver  Archiver
	publisher Publisher
	logger    *slog.Logger
	watch     config.WatchConfig
	audit     config.AuditConfig
	now       func() time.Time
	newRunID  func() string
}

func NewIngestService(
	reader BatchReader,
	notices NoticeStore,
	txManager TransactionManager,
	archiver Archiver,
	publisher Publisher,
	logger *slog.Logger,
	watch config.WatchConfig,
	audit config.AuditConfig,
) *IngestService {
	return &IngestService{
		reader:    reader,
		notices:   notices,
		txManager: txManager,
		archiver:  archiver,
		publisher: publisher,
		logger:    logger.With("component", "processor"),
		watch:     watch,
		audit:     audit,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Process runs one file through parse, insert, commit and archive. It
// never returns an error: every failure ends up in the outcome. A batch
// that has started is not interrupted by cancellation of ctx.
func (s *IngestService) Process(ctx context.Context, file domain.IncomingFile) *domain.IngestOutcome {
	ctx = context.WithoutCancel(ctx)

	outcome := &domain.IngestOutcome{
		RunID:      s.newRunID(),
		File:       file.Path,
		State:      domain.StateDetected,
		Failures:   []domain.RecordFailure{},
		DetectedAt: file.DetectedAt,
		StartedAt:  s.now(),
	}
	logger := s.logger.With("file", file.Path, "run_id", outcome.RunID)

	_ = timing.Measure(logger, "process file", func() error {
		s.process(ctx, logger, outcome)
		return outcome.Err
	})
	outcome.Duration = s.now().Sub(outcome.StartedAt)

	s.report(ctx, logger, outcome)
	return outcome
}

func (s *IngestService) process(ctx context.Context, logger *slog.Logger, outcome *domain.IngestOutcome) {
	outcome.State = domain.StateParsing
	batch, err := s.reader.ReadBatch(outcome.File)
	if err != nil {
		outcome.Fail(domain.StateParseFailed, err)
		logger.Error("parse failed", "error", err)
		return
	}
	outcome.Total = len(batch.Entries)

	outcome.State = domain.StateInserting
	inserted, failures, err := s.insertBatch(ctx, logger, batch, outcome)
	outcome.Failures = failures
	if err != nil {
		if !errors.Is(err, domain.ErrCommit) {
			err = fmt.Errorf("%w: %w", domain.ErrCommit, err)
		}
		outcome.Fail(domain.StateCommitFailed, err)
		logger.Error("commit failed", "error", err, "total", outcome.Total)
		return
	}
	outcome.Inserted = inserted

	logger.Info("batch committed",
		"total", outcome.Total,
		"inserted", inserted,
		"failed", len(failures),
	)

	outcome.State = domain.StateArchiving
	archived, err := s.archiver.Archive(outcome.File)
	if err != nil {
		outcome.Fail(domain.StateArchiveFailed, err)
		logger.Warn("archive failed",
			"error", err,
			"inserted", inserted,
			"action", "rows are committed; clear the archive name clash and remove the input file by hand",
		)
		return
	}

	outcome.ArchivedPath = archived
	outcome.State = domain.StateDone
}

func (s *IngestService) insertBatch(
	ctx context.Context,
	logger *slog.Logger,
	batch *domain.Batch,
	outcome *domain.IngestOutcome,
) (int, []domain.RecordFailure, error) {
	audit := domain.LoadAudit{
		RunID:        outcome.RunID,
		SourceFile:   filepath.Base(outcome.File),
		SourceSystem: s.audit.SourceSystem,
		LoadProcess:  s.audit.LoadProcess,
		LoadedAt:     s.now().UTC(),
	}

	var inserted int
	failures := []domain.RecordFailure{}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i := range batch.Entries {
			entry := &batch.Entries[i]

			if entry.Err != nil {
				failures = append(failures, s.recordFailure(logger, i, entry.Err))
				continue
			}

			var insertErr error
			err := s.txManager.WithSavepoint(txCtx, func(spCtx context.Context) error {
				insertErr = s.notices.Insert(spCtx, &entry.Notice, audit)
				return insertErr
			})
			if errors.Is(err, domain.ErrSavepoint) {
				return fmt.Errorf("record %d: %w", i, err)
			}
			if insertErr != nil {
				failures = append(failures, s.recordFailure(logger, i, insertErr))
				continue
			}
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}

			inserted++
			if s.watch.ProgressEvery > 0 && inserted%s.watch.ProgressEvery == 0 {
				logger.Info("batch progress", "inserted", inserted, "total", outcome.Total)
			}
		}
		return nil
	})
	if err != nil {
		return 0, failures, err
	}

	return inserted, failures, nil
}

func (s *IngestService) recordFailure(logger *slog.Logger, index int, err error) domain.RecordFailure {
	logger.Warn("record failed", "index", index, "error", err)
	return domain.RecordFailure{Index: index, Error: err.Error()}
}

func (s *IngestService) report(ctx context.Context, logger *slog.Logger, outcome *domain.IngestOutcome) {
	level := slog.LevelInfo
	switch outcome.State {
	case domain.StateArchiveFailed:
		level = slog.LevelWarn
	case domain.StateParseFailed, domain.StateCommitFailed:
		level = slog.LevelError
	}

	logger.Log(ctx, level, "file done",
		"state", outcome.State,
		"total", outcome.Total,
		"inserted", outcome.Inserted,
		"failed", len(outcome.Failures),
		"archived_path", outcome.ArchivedPath,
		"detected_at", outcome.DetectedAt,
		"duration", outcome.Duration,
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, outcome); err != nil {
		logger.Warn("publish outcome failed", "error", err)
	}
}
