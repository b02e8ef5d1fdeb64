// Package telemetry configures the process logger.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls logger setup. Zero values fall back to the environment.
type Options struct {
	// Level overrides LOG_LEVEL: debug, info, warn or error.
	Level string

	// Format overrides LOG_FORMAT: text or json. Default text.
	Format string

	// Verbose forces debug level.
	Verbose bool

	// Getenv reads the environment. Nil means os.Getenv.
	Getenv func(string) string
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w.
//
// Precedence for the level: Verbose, then Options.Level, then LOG_LEVEL. The
// format comes from Options.Format, then LOG_FORMAT.
func NewLogger(w io.Writer, o Options) *slog.Logger {
	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	levelName := o.Level
	if levelName == "" {
		levelName = getenv("LOG_LEVEL")
	}
	level := ParseLevel(levelName)
	if o.Verbose {
		level = slog.LevelDebug
	}

	format := o.Format
	if format == "" {
		format = getenv("LOG_FORMAT")
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup builds a logger on w and installs it as the slog default.
func Setup(w io.Writer, o Options) *slog.Logger {
	logger := NewLogger(w, o)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithSessionID returns logger annotated with a session id.
func WithSessionID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("session_id", id)
}
