// Package logger wraps zap behind the small printf-style surface the
// rest of this codebase calls into, so call sites read like plain log
// statements while the backend still emits structured, leveled output.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger provides structured logging with a fixed component name
// attached to every line.
type Logger struct {
	name string
	zap  *zap.SugaredLogger
}

// -----------------------------------------------------------------------------

// New builds a Logger backed by a zap production core, named for the
// component that owns it (e.g. "transport", "scheduler"), logging at
// level (one of zap's level names: "debug", "info", "warn", "error";
// an empty or unrecognized value falls back to "info").
func New(name, level string) *Logger {
	zapLevel := zapcore.InfoLevel
	if level != "" {
		if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
			zapLevel = zapcore.InfoLevel
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = "message"
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.NewProductionConfig().Build only fails on a bad sink or
		// encoder configuration, neither of which this default config
		// exercises; fall back rather than crash before logging exists.
		base = zap.NewNop()
	}

	return &Logger{
		name: name,
		zap:  base.Sugar().Named(name),
	}
}

// -----------------------------------------------------------------------------

// Debug logs a low-level diagnostic message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zap.Debugf(format, args...)
}

// Warning logs a message about a recoverable, unexpected condition.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.zap.Warnf(format, args...)
}

// Info logs a routine, expected event.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zap.Infof(format, args...)
}

// Error logs a failure that the caller is handling or has already
// recovered from.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zap.Errorf(format, args...)
}

// Critical logs an unrecoverable failure, flushes buffered log entries
// and terminates the process.
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.zap.Error(msg)
	_ = l.zap.Sync()
	os.Exit(1)
}

// Sync flushes any buffered log entries. Call before process exit on
// the normal shutdown path.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// With returns a child logger with additional structured key-value
// pairs attached to every subsequent line.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		name: l.name,
		zap:  l.zap.With(keysAndValues...),
	}
}
