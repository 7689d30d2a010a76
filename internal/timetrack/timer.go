// Package timetrack tracks elapsed time and throughput of long-running operations.
package timetrack

import (
	"time"

	"github.com/kopia/scryptkdf/internal/clock"
)

// Timer measures elapsed time of operations.
type Timer struct {
	startTime time.Time
}

// Elapsed returns the time elapsed since the timer was started.
func (t Timer) Elapsed() time.Duration {
	return clock.Since(t.startTime)
}

// StartTimer starts the timer.
func StartTimer() Timer {
	return Timer{clock.Now()}
}
