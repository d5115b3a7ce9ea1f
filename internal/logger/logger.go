package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu           sync.RWMutex
	globalLogger = slog.New(&silentHandler{})
	errorLogger  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	verboseMode  bool
)

// Init initializes the global logger with verbose mode setting
func Init(verbose bool) {
	InitWithWriter(verbose, os.Stderr)
}

// InitWithWriter is Init with an explicit destination, used by tests and by
// the long-running "run" command when it logs to a file.
func InitWithWriter(verbose bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	verboseMode = verbose
	if verbose {
		globalLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		// Silent logger for non-verbose mode
		globalLogger = slog.New(&silentHandler{})
	}
	errorLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	slog.SetDefault(globalLogger)
}

// silentHandler discards all log messages when verbose mode is disabled
type silentHandler struct{}

func (h *silentHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *silentHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *silentHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *silentHandler) WithGroup(_ string) slog.Handler {
	return h
}

func current() (*slog.Logger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger, verboseMode
}

// Debug logs debug messages only in verbose mode
func Debug(msg string, args ...any) {
	if l, verbose := current(); verbose {
		l.Debug(msg, args...)
	}
}

// Info logs info messages only in verbose mode
func Info(msg string, args ...any) {
	if l, verbose := current(); verbose {
		l.Info(msg, args...)
	}
}

// Warn logs warning messages only in verbose mode
func Warn(msg string, args ...any) {
	if l, verbose := current(); verbose {
		l.Warn(msg, args...)
	}
}

// Error always logs error messages regardless of verbose mode
func Error(msg string, args ...any) {
	l, verbose := current()
	if verbose {
		l.Error(msg, args...)
		return
	}

	mu.RLock()
	el := errorLogger
	mu.RUnlock()
	el.Error(msg, args...)
}
