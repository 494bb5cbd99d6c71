// Package logging defines the logger capability consumed throughout the
// framework and provides a slog-backed console implementation.
//
// The framework itself never formats console output beyond this interface;
// anything satisfying Logger can be swapped in.
package logging

import (
	"io"
	"log/slog"
)

// Logger is the capability every execution context carries. Success is a
// distinct operation so callers can mark user-visible completion lines
// without inventing their own convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Success(msg string, args ...any)
}

type slogLogger struct {
	s *slog.Logger
}

// New creates an isolated Logger writing to outW. It does not touch the
// global slog default, allowing per-engine logger instances.
func New(outW io.Writer, levelStr, formatStr string) Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return &slogLogger{s: slog.New(handler)}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(s *slog.Logger) Logger {
	return &slogLogger{s: s}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.s.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.s.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.s.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.s.Error(msg, args...) }

func (l *slogLogger) Success(msg string, args ...any) {
	l.s.Info("✅ "+msg, args...)
}

// WithAttrs returns a Logger that adds the given slog-style key/value pairs
// to every record. Used by the engine to stamp the invocation id.
func WithAttrs(l Logger, args ...any) Logger {
	if sl, ok := l.(*slogLogger); ok {
		return &slogLogger{s: sl.s.With(args...)}
	}
	return l
}

type nopLogger struct{}

// NewNop returns a Logger that discards everything. Useful in tests and as
// the last-resort context fallback.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any)   {}
func (nopLogger) Info(string, ...any)    {}
func (nopLogger) Warn(string, ...any)    {}
func (nopLogger) Error(string, ...any)   {}
func (nopLogger) Success(string, ...any) {}
