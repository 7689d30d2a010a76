package timetrack

import "time"

// Estimator computes the throughput of an operation once it completes.
type Estimator struct {
	timer Timer
}

// Start starts tracking an operation.
func Start() Estimator {
	return Estimator{StartTimer()}
}

// Completed returns the duration of the operation and the number of units processed per second.
func (v Estimator) Completed(total float64) (totalTime time.Duration, perSecond float64) {
	dur := v.timer.Elapsed()
	if dur <= 0 {
		return 0, 0
	}

	return dur, total / dur.Seconds()
}
