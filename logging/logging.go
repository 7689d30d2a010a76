// Package logging provides loggers for scryptkdf.
//
// Loggers travel inside context.Context, so library code can log without depending on
// how the host process configured its output:
//
//	var log = logging.Module("scryptkdf/bridge")
//
//	func f(ctx context.Context) {
//		log(ctx).Debugw("deriving", "N", n)
//	}
package logging

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is used by scryptkdf to emit various logs.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

// Module returns an function that returns a logger for a given module when provided with a context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if l := ctx.Value(loggerCacheKey); l != nil {
			return l.(*loggerCache).getLogger(module) //nolint:forcetypeassert
		}

		return NullLogger
	}
}

// ToWriter returns LoggerFactory that uses given writer for log output (unadorned).
func ToWriter(w io.Writer) LoggerFactory {
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "m",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		zapcore.AddSync(w), zap.DebugLevel)).Sugar().Named
}
