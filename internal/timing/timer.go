// Package timing emits one duration event per measured step.
package timing

import (
	"log/slog"
	"time"
)

// Track starts a timer for step. Calling the returned func logs the
// elapsed time; use it with defer.
func Track(logger *slog.Logger, step string) func() {
	start := time.Now()
	return func() {
		logger.Info("step finished", "step", step, "duration", time.Since(start))
	}
}

// Measure runs fn and logs its duration, whatever its result.
func Measure(logger *slog.Logger, step string, fn func() error) error {
	defer Track(logger, step)()
	return fn()
}
