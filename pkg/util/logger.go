package util

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: human-readable text with debug
// detail while developing, JSON for log shippers everywhere else. Every
// record carries the service name so shared sinks can tell binaries apart.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	switch env {
	case "development", "test":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "expense-tracker")
}
