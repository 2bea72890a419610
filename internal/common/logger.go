package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ParseLevel converts a level name to an slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfig, level)
}

// SetupLogger configures the global logger with appropriate settings.
func SetupLogger(level slog.Level, format string) error {
	return SetupLoggerTo(os.Stderr, level, format)
}

// SetupLoggerTo configures the global logger to write to w.
func SetupLoggerTo(w io.Writer, level slog.Level, format string) error {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "console", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("%w: invalid log format: %s", ErrInvalidConfig, format)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
