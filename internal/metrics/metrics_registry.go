// Package metrics provides a registry of counters, gauges and distributions that are
// exported to Prometheus and can be logged on demand.
package metrics

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kopia/scryptkdf/logging"
)

var log = logging.Module("scryptkdf/metrics")

// Registry groups together all metrics of a component.
type Registry struct {
	mu sync.Mutex

	// +checklocks:mu
	allCounters map[string]*Counter
	// +checklocks:mu
	allGauges map[string]*Gauge
	// +checklocks:mu
	allDurationDistributions map[string]*DurationDistribution
}

// NewRegistry returns new metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		allCounters:              map[string]*Counter{},
		allGauges:                map[string]*Gauge{},
		allDurationDistributions: map[string]*DurationDistribution{},
	}
}

// Log logs the current values of all metrics.
func (r *Registry) Log(ctx context.Context) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range sortedKeys(r.allCounters) {
		log(ctx).Debugw("COUNTER", "name", n, "value", r.allCounters[n].Snapshot(false))
	}

	for _, n := range sortedKeys(r.allGauges) {
		log(ctx).Debugw("GAUGE", "name", n, "value", r.allGauges[n].Value())
	}

	for _, n := range sortedKeys(r.allDurationDistributions) {
		s := r.allDurationDistributions[n].Snapshot(false)

		log(ctx).Debugw("DURATION-DISTRIBUTION",
			"name", n,
			"counters", s.BucketCounters,
			"cnt", s.Count,
			"sum", s.Sum,
			"min", s.Min,
			"avg", s.Mean(),
			"max", s.Max)
	}

	return nil
}

// Close logs the final values of all metrics.
func (r *Registry) Close(ctx context.Context) error {
	return r.Log(ctx)
}

func sortedKeys[T any](m map[string]T) []string {
	var keys []string

	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// labelsSuffix returns a stable "[k1:v1;k2:v2]" suffix that distinguishes metrics with the same name.
func labelsSuffix(l map[string]string) string {
	if len(l) == 0 {
		return ""
	}

	var params []string
	for k, v := range l {
		params = append(params, k+":"+v)
	}

	sort.Strings(params)

	return "[" + strings.Join(params, ";") + "]"
}
