// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting and supports context-based logging
// with request IDs and catalog session IDs.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// Options configures optional log sinks.
type Options struct {
	// BetterStackToken enables shipping warn+ records to Better Stack when set.
	BetterStackToken string

	// FilePath enables an additional rotating JSON log file when set.
	FilePath      string
	FileMaxSizeMB int // default 50
	FileMaxAge    int // days, default 14
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w plus any sinks enabled in opts.
// All sinks are wrapped with ContextHandler so request and session IDs are attached.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := ParseLevel(level)

	handlers := []slog.Handler{newJSONHandler(w, logLevel)}
	var closers []io.Closer

	if opts.FilePath != "" {
		maxSize := opts.FileMaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		maxAge := opts.FileMaxAge
		if maxAge <= 0 {
			maxAge = 14
		}
		file := &lumberjack.Logger{
			Filename: opts.FilePath,
			MaxSize:  maxSize,
			MaxAge:   maxAge,
			Compress: true,
		}
		handlers = append(handlers, newJSONHandler(file, logLevel))
		closers = append(closers, file)
	}

	if opts.BetterStackToken != "" {
		// Remote shipping is limited to warnings and above to keep volume low.
		remoteLevel := max(logLevel, slog.LevelWarn)
		handlers = append(handlers, slogbetterstack.Option{
			Level: remoteLevel,
			Token: opts.BetterStackToken,
		}.NewBetterstackHandler())
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = NewMultiHandler(handlers...)
	}

	return &Logger{
		Logger:  slog.New(NewContextHandler(handler)),
		closers: closers,
	}
}

// ParseLevel converts a LOG_LEVEL string to a slog level, defaulting to info.
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

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
				lvl := a.Value.String()
				if lvl == "WARN" {
					lvl = "warning"
				}
				a.Value = slog.StringValue(strings.ToLower(lvl))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
}

func (l *Logger) derive(logger *slog.Logger) *Logger {
	return &Logger{Logger: logger, closers: l.closers}
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

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Close releases file sinks. Safe to call on loggers without sinks.
func (l *Logger) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
