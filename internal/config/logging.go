package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a log_level value to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger writes JSON to stdout and, when logFile is set, also appends
// JSON to that file. The returned cleanup closes the file.
func NewLogger(level, logFile string) (*slog.Logger, func() error, error) {
	if logFile == "" {
		return NewLoggerWithWriters(os.Stdout, nil, ParseLevel(level)), func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return NewLoggerWithWriters(os.Stdout, file, ParseLevel(level)), file.Close, nil
}

// NewLoggerWithWriters builds the same handler chain on arbitrary writers.
// A nil file writer yields a single-output logger.
func NewLoggerWithWriters(stdout, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	stdoutHandler := slog.NewJSONHandler(stdout, opts)
	if file == nil {
		return slog.New(stdoutHandler)
	}
	return slog.New(slogmulti.Fanout(stdoutHandler, slog.NewJSONHandler(file, opts)))
}
