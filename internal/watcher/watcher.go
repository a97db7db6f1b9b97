// Package watcher turns file creation events in the input directory into
// serialized calls to a handler.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"joconde_watcher/internal/config"
	"joconde_watcher/internal/domain"
)

// Handler receives each settled file. It runs on the watcher goroutine,
// so no second file is delivered until it returns.
type Handler func(ctx context.Context, file domain.IncomingFile)

type Watcher struct {
	cfg     config.WatchConfig
	handler Handler
	logger  *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

func New(cfg config.WatchConfig, handler Handler, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "watcher"),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Ready is closed once the input directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Stop asks the loop to return. A file already handed to the handler is
// finished first. Calling Stop more than once is harmless.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// Start watches the input directory until Stop is called or ctx is done.
// It returns nil after Stop and ctx.Err() after cancellation. Setup
// failures wrap domain.ErrConfig. Once stopped, later calls return nil.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.cfg.Validate(); err != nil {
		return err
	}

	dir := w.cfg.InputDirectory
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: input directory %s: %w", domain.ErrConfig, dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %w", domain.ErrConfig, err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("%w: watch %s: %w", domain.ErrConfig, dir, err)
	}
	w.readyOnce.Do(func() {
		close(w.ready)
	})

	w.logger.Info("watcher started",
		"input_directory", dir,
		"archive_directory", w.cfg.ArchiveDirectory,
		"file_suffix", w.cfg.FileSuffix,
		"settle_delay", w.cfg.SettleDelay,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", "reason", "context done")
			return ctx.Err()
		case <-w.done:
			w.logger.Info("watcher stopped", "reason", "stop requested")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.stopped() {
				w.logger.Info("watcher stopped", "reason", "stop requested")
				return nil
			}
			if !w.accept(event) {
				continue
			}
			w.deliver(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// accept keeps creation events for regular entries whose base name ends
// with the configured suffix.
func (w *Watcher) accept(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	if !strings.HasSuffix(filepath.Base(event.Name), w.cfg.FileSuffix) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err == nil && info.IsDir() {
		return false
	}
	return true
}

func (w *Watcher) deliver(ctx context.Context, path string) {
	file := domain.IncomingFile{Path: path, DetectedAt: w.now()}
	w.logger.Info("file detected", "file", path)

	if w.cfg.SettleDelay > 0 {
		timer := time.NewTimer(w.cfg.SettleDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			w.logger.Info("settle aborted, file left in place", "file", path)
			return
		case <-w.done:
			w.logger.Info("settle aborted, file left in place", "file", path)
			return
		}
	}

	w.handler(ctx, file)
}

func (w *Watcher) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
