package interfaces

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a name-addressed registry of prometheus collectors.
// Operations on names that were never registered are no-ops.
type Metrics interface {
	GetRegistry() *prometheus.Registry

	RegisterCounter(name, help string)
	RegisterCounterVec(name, help string, labels []string)
	RegisterHistogramVec(name, help string, buckets []float64, labels []string)
	RegisterGauge(name, help string)

	IncCounter(name string)
	IncCounterVec(name string, labels ...string)
	ObserveHistogramVec(name string, value float64, labels ...string)

	SetGauge(name string, value float64)
	IncGauge(name string)
	DecGauge(name string)
}
