// Package clock provides indirection for accessing current time.
package clock

import (
	"sync/atomic"
	"time"
)

var source atomic.Pointer[func() time.Time]

// Now returns the current time. Unless overridden, readings carry the monotonic clock
// so that durations computed from them are immune to wall clock changes.
func Now() time.Time {
	if f := source.Load(); f != nil {
		return (*f)()
	}

	return time.Now() //nolint:forbidigo
}

// Since returns time since the given timestamp.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// Override replaces the source of current time until the returned function is called.
func Override(now func() time.Time) (restore func()) {
	prev := source.Swap(&now)

	return func() {
		source.Store(prev)
	}
}
