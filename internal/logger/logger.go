// Package logger provides structured logging for retailprep.
//
// Log output goes to stderr so stdout carries only the completion line.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// Options configures the logger.
type Options struct {
	Debug  bool         // Enable debug level logging
	Quiet  bool         // Only show errors; wins over Debug
	JSON   bool         // Output as JSON
	Output io.Writer    // Output destination (default: stderr)
	Logger *slog.Logger // Custom logger (overrides all other options)
}

// Level returns the minimum level the options select.
func (o Options) Level() slog.Level {
	switch {
	case o.Quiet:
		return slog.LevelError
	case o.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Init replaces the package logger according to opts.
func Init(opts Options) {
	if opts.Logger != nil {
		current.Store(opts.Logger)
		return
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level()}

	var h slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if opts.JSON {
		h = slog.NewJSONHandler(out, handlerOpts)
	}
	current.Store(slog.New(h))
}

// L returns the current logger.
func L() *slog.Logger {
	return current.Load()
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { L().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { L().Info(msg, args...) }

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
