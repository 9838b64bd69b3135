// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting and supports context-based logging
// with request IDs, user emails and class scopes.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	level    slog.Level
	shutdown func(context.Context) error
}

// Options configures logger construction.
type Options struct {
	Level  string
	Writer io.Writer

	// BetterStackToken enables shipping records to Better Stack when set.
	BetterStackToken string
}

// NewWithOptions creates a logger from Options.
// The local JSON handler is always present; remote sinks are dispatched
// asynchronously so a slow log shipper never blocks a chat request.
func NewWithOptions(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	logLevel := ParseLevel(opts.Level)

	localHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: replaceAttr,
	})
	var handler slog.Handler = localHandler

	shutdown := func(context.Context) error { return nil }
	if opts.BetterStackToken != "" {
		remote := NewAsyncHandler(slogbetterstack.Option{
			Level: logLevel,
			Token: opts.BetterStackToken,
		}.NewBetterstackHandler(), 0)
		handler = NewMultiHandler(handler, remote)
		local := slog.New(localHandler)
		shutdown = func(ctx context.Context) error {
			err := remote.Shutdown(ctx)
			if n := remote.Dropped(); n > 0 {
				local.WarnContext(ctx, "Remote log records dropped", "count", n)
			}
			return err
		}
	}

	return &Logger{
		Logger:   slog.New(NewContextHandler(handler)),
		level:    logLevel,
		shutdown: shutdown,
	}
}

// ParseLevel maps a config string to a slog level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
		level := a.Value.String()
		if level == "WARN" {
			level = "warning"
		} else {
			level = strings.ToLower(level)
		}
		a.Value = slog.StringValue(level)
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// GetLevel returns the minimum level this logger emits.
func (l *Logger) GetLevel() slog.Level {
	return l.level
}

// Shutdown flushes remote sinks. Safe to call when no remote sink is configured.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.shutdown == nil {
		return nil
	}
	return l.shutdown(ctx)
}

func (l *Logger) derive(next *slog.Logger) *Logger {
	return &Logger{Logger: next, level: l.level, shutdown: l.shutdown}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}
