// Package log provides structured diagnostics for kpz.
//
// This package defines a Logger interface backed by Go's stdlib slog so
// that the registry client, inventory, and package operations can be
// tested without capturing process-wide output. Components receive a
// Logger explicitly; Default exists for the few places that cannot.
//
// Output semantics:
//   - User output (stdout): package listings and per-package results
//   - Diagnostic logging (stderr): Debug, Info, Warn, Error messages
//
// Verbosity levels:
//   - ERROR (--quiet): Errors only
//   - WARN (default): Warnings and user output
//   - INFO (--verbose): Requests, paths, lock activity
//   - DEBUG (--debug): Response codes, byte counts, detector decisions
package log

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that adds the given key-value pairs to
	// every subsequent entry, e.g. logger.With("package", name).
	With(args ...any) Logger
}

// slogLogger wraps slog.Logger to implement the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewCLI creates the logger used by the kpz binary: text records on w,
// without timestamps, filtered at level.
func NewCLI(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all log output.
type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

// Verbosity captures the --quiet/--verbose/--debug switches.
type Verbosity struct {
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Level maps verbosity switches to a slog level. Debug wins over
// verbose, which wins over quiet; with nothing set the level is WARN.
func (v Verbosity) Level() slog.Level {
	switch {
	case v.Debug:
		return slog.LevelDebug
	case v.Verbose:
		return slog.LevelInfo
	case v.Quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// IsTruthy reports whether an environment value enables a switch.
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Called once from main after
// parsing verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
