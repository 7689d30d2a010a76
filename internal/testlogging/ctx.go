// Package testlogging implements loggers that write to the testing.T log.
package testlogging

import (
	"context"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/kopia/scryptkdf/logging"
)

// Level specifies log level.
type Level = zapcore.Level

// log levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// NewTestLogger returns logger bound to the provided testing.T.
func NewTestLogger(t zaptest.TestingT) logging.Logger {
	return zaptest.NewLogger(t).Sugar()
}

// Factory returns a LoggerFactory whose loggers write entries of the given level or above
// to the test log, named after their module.
func Factory(t zaptest.TestingT, level ...Level) logging.LoggerFactory {
	lvl := LevelDebug
	if len(level) > 0 {
		lvl = level[0]
	}

	root := zaptest.NewLogger(t, zaptest.Level(lvl))

	return func(module string) logging.Logger {
		return root.Named(module).Sugar()
	}
}

// Context returns a context with attached logger that emits all log entries to go testing.T log output.
func Context(t zaptest.TestingT) context.Context {
	return ContextWithLevel(t, LevelDebug)
}

// ContextWithLevel returns a context with attached logger that emits all log entries with given log level or above.
func ContextWithLevel(t zaptest.TestingT, level Level) context.Context {
	return logging.WithLogger(context.Background(), Factory(t, level))
}
