package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("notedly-api").(*Metrics)
	m.RegisterCounter("signups_total", "Total sign-ups")
	m.RegisterCounterVec("graphql_errors_total", "GraphQL errors", []string{"code"})

	m.IncCounter("signups_total")
	m.IncCounter("signups_total")
	m.IncCounterVec("graphql_errors_total", "FORBIDDEN")
	m.IncCounterVec("graphql_errors_total", "NOT_FOUND")
	m.IncCounterVec("graphql_errors_total", "NOT_FOUND")

	// unknown names are ignored
	m.IncCounter("missing_total")
	m.IncCounterVec("missing_total", "x")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.counters["signups_total"]))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.counterVecs["graphql_errors_total"].WithLabelValues("FORBIDDEN")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.counterVecs["graphql_errors_total"].WithLabelValues("NOT_FOUND")))
}

func TestMetrics_Namespace(t *testing.T) {
	m := NewMetrics("notedly-api")
	m.RegisterCounter("notes_created_total", "Notes created")
	m.IncCounter("notes_created_total")

	families, err := m.GetRegistry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "notedly_api_notes_created_total", families[0].GetName())
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics("notedly").(*Metrics)
	m.RegisterGauge("in_flight", "In-flight requests")

	m.IncGauge("in_flight")
	m.IncGauge("in_flight")
	m.DecGauge("in_flight")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.gauges["in_flight"]))

	m.SetGauge("in_flight", 10)
	assert.Equal(t, float64(10), testutil.ToFloat64(m.gauges["in_flight"]))

	m.SetGauge("missing", 1)
	m.IncGauge("missing")
}

func TestMetrics_Histograms(t *testing.T) {
	m := NewMetrics("notedly").(*Metrics)
	m.RegisterHistogramVec("op_duration_seconds", "Duration by op", []float64{0.1, 1}, []string{"operation"})

	m.ObserveHistogramVec("op_duration_seconds", 0.5, "mutation")
	m.ObserveHistogramVec("missing_seconds", 0.5, "mutation")

	assert.Equal(t, 1, testutil.CollectAndCount(m.histogramVecs["op_duration_seconds"]))
}
