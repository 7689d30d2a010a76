package metrics_test

import (
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	prommodel "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func prometheusGatherer() prometheus.Gatherer {
	return prometheus.DefaultGatherer
}

// metricValue returns the value of the counter or gauge with the given name and exactly the given labels.
func metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := prometheusGatherer().Gather()
	require.NoError(t, err)

	i := slices.IndexFunc(families, func(f *prommodel.MetricFamily) bool {
		return f.GetName() == name
	})
	require.GreaterOrEqual(t, i, 0, "metric %v not found", name)

	for _, m := range families[i].GetMetric() {
		if !labelsEqual(m.GetLabel(), labels) {
			continue
		}

		switch families[i].GetType() {
		case prommodel.MetricType_COUNTER:
			return m.GetCounter().GetValue()
		case prommodel.MetricType_GAUGE:
			return m.GetGauge().GetValue()
		default:
			require.Failf(t, "unsupported metric type", "%v is %v", name, families[i].GetType())
		}
	}

	require.Failf(t, "metric not found", "%v with labels %v", name, labels)

	return 0
}

func labelsEqual(got []*prommodel.LabelPair, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}

	for _, l := range got {
		if v, ok := want[l.GetName()]; !ok || v != l.GetValue() {
			return false
		}
	}

	return true
}
