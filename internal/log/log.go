// Package log provides structured logging for poliscope.
// It wraps slog with sensible defaults and an optional rotating log file.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *slog.Logger
	once   sync.Once
	file   *lumberjack.Logger
)

// Options controls logger initialization.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Default: info.
	Level string

	// File, when set, receives a copy of every log line.
	// The file is rotated by size.
	File string
}

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	InitWithOptions(Options{Level: level})
}

// InitWithOptions initializes the global logger. Only the first call has effect.
func InitWithOptions(opts Options) {
	once.Do(func() {
		handlerOpts := &slog.HandlerOptions{
			Level: ParseLevel(opts.Level),
		}

		var out io.Writer = os.Stdout
		if opts.File != "" {
			file = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    20, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
				LocalTime:  true,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, file)
		}

		// Use JSON in production, text in development
		if os.Getenv("GO_ENV") == "production" {
			logger = slog.New(slog.NewJSONHandler(out, handlerOpts))
		} else {
			logger = slog.New(slog.NewTextHandler(out, handlerOpts))
		}

		slog.SetDefault(logger)
	})
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close flushes and closes the log file, if any.
func Close() error {
	if file == nil {
		return nil
	}
	return file.Close()
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}
