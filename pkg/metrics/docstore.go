package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DocstoreMetrics records call metadata for the document store client.
type DocstoreMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewDocstoreMetrics registers the document store metrics on the provided registerer.
func NewDocstoreMetrics(reg prometheus.Registerer) *DocstoreMetrics {
	if reg == nil {
		return &DocstoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_call_duration_seconds",
		Help:    "Duration of document store calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_calls_total",
		Help: "Document store calls by operation, acronym and outcome.",
	}, []string{"operation", "acronym", "outcome"})
	reg.MustRegister(duration, calls)
	return &DocstoreMetrics{
		duration: duration,
		calls:    calls,
	}
}

// ObserveCall records one completed call against the store.
func (d *DocstoreMetrics) ObserveCall(operation, acronym string, err error, duration time.Duration) {
	if d == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if d.calls != nil {
		d.calls.WithLabelValues(normalizeLabel(operation), normalizeLabel(acronym), outcome).Inc()
	}
	if d.duration != nil {
		d.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
