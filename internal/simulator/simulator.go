// Package simulator replays a Joconde export as a stream of small batch
// files dropped into the watched directory.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"joconde_watcher/internal/config"
	"joconde_watcher/internal/domain"
)

const fileNameLayout = "20060102_150405"

type Simulator struct {
	sourceFile string
	outputDir  string
	batchSize  int
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg config.SimulatorConfig, outputDir string, logger *slog.Logger) (*Simulator, error) {
	if cfg.SourceFile == "" {
		return nil, fmt.Errorf("%w: simulator.source_file is required", domain.ErrConfig)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: simulator.batch_size must be positive", domain.ErrConfig)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("%w: simulator.interval must not be negative", domain.ErrConfig)
	}

	return &Simulator{
		sourceFile: cfg.SourceFile,
		outputDir:  outputDir,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		logger:     logger.With("component", "simulator"),
		now:        time.Now,
	}, nil
}

// FileName is the name of the n-th batch file (1-based).
func FileName(n int, at time.Time) string {
	return fmt.Sprintf("joconde_batch_%05d_%s.json", n, at.Format(fileNameLayout))
}

// Run writes one batch file per interval and returns how many were written.
// Nothing is waited for after the last file.
func (s *Simulator) Run(ctx context.Context) (int, error) {
	records, err := s.load()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: output directory %s: %w", domain.ErrConfig, s.outputDir, err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.interval), 1)
	}

	batches := (len(records) + s.batchSize - 1) / s.batchSize
	s.logger.Info("simulation started",
		"source_file", s.sourceFile,
		"records", len(records),
		"batches", batches,
		"interval", s.interval,
	)

	written := 0
	for start := 0; start < len(records); start += s.batchSize {
		if err := limiter.Wait(ctx); err != nil {
			return written, fmt.Errorf("wait for next batch: %w", err)
		}

		end := min(start+s.batchSize, len(records))
		path, err := s.write(written+1, records[start:end])
		if err != nil {
			return written, err
		}
		written++

		s.logger.Info("batch file written", "file", path, "records", end-start, "batch", written, "of", batches)
	}

	s.logger.Info("simulation finished", "files", written)
	return written, nil
}

func (s *Simulator) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.sourceFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read source file: %w", domain.ErrConfig, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: source file %s is not a JSON array: %w", domain.ErrParse, s.sourceFile, err)
	}
	return records, nil
}

// write makes the file appear under its final name in one rename so the
// watcher never sees a half-written batch.
func (s *Simulator) write(n int, records []json.RawMessage) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch %d: %w", n, err)
	}

	path := filepath.Join(s.outputDir, FileName(n, s.now()))
	tmp := path + ".part"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write batch %d: %w", n, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish batch %d: %w", n, err)
	}
	return path, nil
}
