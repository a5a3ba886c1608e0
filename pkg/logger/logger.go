// Package logger builds the process-wide slog logger: JSON to stdout,
// optional Sentry fan-out and request-scoped attributes pulled from context.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config describes the logger output.
type Config struct {
	Level  string
	Sentry SentryConfig
	Output io.Writer // defaults to os.Stdout
}

// New creates a JSON logger. Sentry is attached when cfg.Sentry.DSN is set.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})

	if sh := newSentryHandler(cfg.Sentry, h); sh != nil {
		h = fanOut(h, sh)
	}

	return slog.New(decorate(h, extractors...))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
