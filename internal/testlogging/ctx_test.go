package testlogging

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/scryptkdf/logging"
)

type recordingT struct {
	testing.TB

	lines []string
}

func (r *recordingT) Logf(msg string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(msg, args...))
}

func (r *recordingT) Helper() {}

func TestContextWithLevel(t *testing.T) {
	rt := &recordingT{TB: t}

	ctx := ContextWithLevel(rt, LevelWarn)
	l := logging.Module("scryptkdf/test")(ctx)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warnw("shown", "N", 16)
	l.Error("also shown")

	require.Len(t, rt.lines, 2)
	require.True(t, strings.Contains(rt.lines[0], "WARN"), rt.lines[0])
	require.Contains(t, rt.lines[0], "scryptkdf/test")
	require.Contains(t, rt.lines[0], `"N"`)
	require.Contains(t, rt.lines[1], "also shown")
}

func TestNewTestLogger(t *testing.T) {
	rt := &recordingT{TB: t}

	NewTestLogger(rt).Debugf("value %v", 42)

	require.Len(t, rt.lines, 1)
	require.Contains(t, rt.lines[0], "value 42")
}
