package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DurationThresholds are upper bounds of distribution buckets.
type DurationThresholds struct {
	values []int64
}

func (t *DurationThresholds) prometheusBuckets() []float64 {
	var res []float64

	for _, v := range t.values {
		res = append(res, time.Duration(v).Seconds())
	}

	return res
}

func newDurationThresholds(durations ...time.Duration) *DurationThresholds {
	t := &DurationThresholds{}

	for _, d := range durations {
		t.values = append(t.values, int64(d))
	}

	return t
}

// DerivationLatencyThresholds are the buckets used for key derivation times.
//
//nolint:gochecknoglobals,mnd
var DerivationLatencyThresholds = newDurationThresholds(
	1*time.Millisecond,
	2*time.Millisecond,
	5*time.Millisecond,
	10*time.Millisecond,
	20*time.Millisecond,
	50*time.Millisecond,
	100*time.Millisecond,
	200*time.Millisecond,
	500*time.Millisecond,
	1*time.Second,
	2*time.Second,
	5*time.Second,
	10*time.Second,
	30*time.Second,
	60*time.Second,
)

// DurationDistributionState captures momentary state of a distribution.
type DurationDistributionState struct {
	BucketCounters []int64
	Count          int64
	Sum            time.Duration
	Min            time.Duration
	Max            time.Duration
}

// Mean returns the arithmetic mean of observed durations.
func (s DurationDistributionState) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}

	return s.Sum / time.Duration(s.Count)
}

// DurationDistribution measures the distribution of durations.
type DurationDistribution struct {
	thresholds *DurationThresholds
	prom       prometheus.Observer

	mu sync.Mutex
	// +checklocks:mu
	state DurationDistributionState
}

// Observe adds the provided observation value to the distribution.
func (d *DurationDistribution) Observe(dur time.Duration) {
	if d == nil {
		return
	}

	d.prom.Observe(dur.Seconds())

	d.mu.Lock()
	defer d.mu.Unlock()

	s := &d.state

	if s.Count == 0 || dur < s.Min {
		s.Min = dur
	}

	if s.Count == 0 || dur > s.Max {
		s.Max = dur
	}

	s.Count++
	s.Sum += dur
	s.BucketCounters[bucketForThresholds(d.thresholds.values, int64(dur))]++
}

// Snapshot captures the momentary state of the distribution.
func (d *DurationDistribution) Snapshot(reset bool) DurationDistributionState {
	if d == nil {
		return DurationDistributionState{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	s.BucketCounters = append([]int64(nil), d.state.BucketCounters...)

	if reset {
		d.state = d.newState()
	}

	return s
}

func (d *DurationDistribution) newState() DurationDistributionState {
	return DurationDistributionState{
		BucketCounters: make([]int64, len(d.thresholds.values)+1),
	}
}

// bucketForThresholds returns the index of the first threshold that is >= value,
// or len(thresholds) when the value is above all of them.
func bucketForThresholds(thresholds []int64, value int64) int {
	for i, t := range thresholds {
		if value <= t {
			return i
		}
	}

	return len(thresholds)
}

// DurationDistribution gets a persistent duration distribution with the provided name.
func (r *Registry) DurationDistribution(name, help string, thresholds *DurationThresholds, labels map[string]string) *DurationDistribution {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fullName := name + labelsSuffix(labels)

	d := r.allDurationDistributions[fullName]
	if d == nil {
		d = &DurationDistribution{
			thresholds: thresholds,
			prom: getPrometheusHistogram(prometheus.HistogramOpts{
				Name:    prometheusPrefix + name + "_seconds",
				Help:    help,
				Buckets: thresholds.prometheusBuckets(),
			}, labels),
		}

		d.state = d.newState()

		r.allDurationDistributions[fullName] = d
	}

	return d
}
