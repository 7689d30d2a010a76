package timetrack_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopia/scryptkdf/internal/clock"
	"github.com/kopia/scryptkdf/internal/timetrack"
)

func TestEstimator(t *testing.T) {
	e := timetrack.Start()

	time.Sleep(20 * time.Millisecond)

	dur, perSecond := e.Completed(100)
	require.GreaterOrEqual(t, dur, 20*time.Millisecond)
	require.Greater(t, perSecond, 0.0)
	require.LessOrEqual(t, perSecond, 100/0.02)
}

func TestTimer(t *testing.T) {
	tt := timetrack.StartTimer()

	time.Sleep(10 * time.Millisecond)

	require.GreaterOrEqual(t, tt.Elapsed(), 10*time.Millisecond)
}

func TestEstimatorWithFakeClock(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	defer clock.Override(func() time.Time { return now })()

	e := timetrack.Start()

	now = now.Add(4 * time.Second)

	dur, perSecond := e.Completed(10)
	require.Equal(t, 4*time.Second, dur)
	require.InDelta(t, 2.5, perSecond, 1e-9)

	// no time elapsed
	_, perSecond = timetrack.Start().Completed(10)
	require.Zero(t, perSecond)
}
