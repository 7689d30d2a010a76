package logging_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/scryptkdf/logging"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer

	l := logging.ToWriter(&buf)("scryptkdf/test")
	l.Debug("A")
	l.Debugw("S", "r", 8)
	l.Info("B")
	l.Warn("W")

	require.Equal(t, "A\nS\t{\"r\":8}\nB\nW\n", buf.String())
}

func TestNullWriterModule(t *testing.T) {
	l := logging.Module("mod1")(context.Background())

	require.Same(t, logging.NullLogger, l)

	l.Debug("A")
	l.Debugw("S", "b", 123)
	l.Error("C")
}

func TestNonNullWriterModule(t *testing.T) {
	var buf bytes.Buffer

	ctx := logging.WithLogger(context.Background(), logging.ToWriter(&buf))
	mod1 := logging.Module("mod1")

	require.Same(t, mod1(ctx), mod1(ctx), "loggers are cached per module")

	l := mod1(ctx)
	l.Debug("A")
	l.Debugw("S", "p", 1)
	l.Error("C")

	require.Equal(t, "A\nS\t{\"p\":1}\nC\n", buf.String())
}

func BenchmarkLogger(b *testing.B) {
	mod1 := logging.Module("mod1")
	ctx := logging.WithLogger(context.Background(), logging.ToWriter(io.Discard))

	b.ResetTimer()

	for range b.N {
		mod1(ctx)
	}
}
