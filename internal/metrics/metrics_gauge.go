package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauge tracks an int64 quantity that goes up and down, such as bytes held by in-flight work.
type Gauge struct {
	value atomic.Int64
	prom  prometheus.Gauge
}

// Set sets the gauge to a specific value.
func (g *Gauge) Set(v int64) {
	if g == nil {
		return
	}

	g.value.Store(v)
	g.prom.Set(float64(v))
}

// Add adds a value to the gauge.
func (g *Gauge) Add(v int64) {
	if g == nil {
		return
	}

	g.value.Add(v)
	g.prom.Add(float64(v))
}

// Hold adds v to the gauge and returns a function that subtracts it again.
func (g *Gauge) Hold(v int64) (release func()) {
	g.Add(v)

	return func() {
		g.Add(-v)
	}
}

// Value returns the current value of the gauge.
func (g *Gauge) Value() int64 {
	if g == nil {
		return 0
	}

	return g.value.Load()
}

// Gauge returns the gauge with the provided name and labels, creating it on first use.
func (r *Registry) Gauge(name, help string, labels map[string]string) *Gauge {
	if r == nil {
		return nil
	}

	key := name + labelsSuffix(labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.allGauges[key]; ok {
		return g
	}

	g := &Gauge{
		prom: getPrometheusGauge(prometheus.GaugeOpts{
			Name: prometheusPrefix + name,
			Help: help,
		}, labels),
	}

	r.allGauges[key] = g

	return g
}
