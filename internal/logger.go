package internal

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// NewLogger builds the application logger. The text format uses
// charmbracelet/log as the slog handler; anything else logs JSON.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format == LogFormatText {
		return slog.New(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.Level(level),
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
