package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// RequestsTotal tracks outbound Rent Manager API calls.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentmanager_api_requests_total",
			Help: "Total number of Rent Manager API requests made (by endpoint, method, and outcome).",
		},
		[]string{"endpoint", "method", "outcome"},
	)

	// RequestDuration measures the duration of outbound Rent Manager API calls.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentmanager_api_request_duration_seconds",
			Help:    "Duration of Rent Manager API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint", "method"},
	)

	// RecordsTotal counts shaped records by kind and result (synced, skipped, degraded).
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentmanager_records_total",
			Help: "Number of Rent Manager records processed (by kind and result).",
		},
		[]string{"kind", "result"},
	)

	// SinkErrors tracks failed record deliveries by sink.
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentmanager_sink_errors_total",
			Help: "Number of record deliveries that failed (by sink).",
		},
		[]string{"sink"},
	)
)

// IncRequest increments the API request counter.
func IncRequest(endpoint, method, outcome string) {
	RequestsTotal.WithLabelValues(endpoint, method, outcome).Inc()
}

// IncRecord increments the record counter.
func IncRecord(kind, result string) {
	RecordsTotal.WithLabelValues(kind, result).Inc()
}

// IncSinkError increments the sink error counter.
func IncSinkError(sink string) {
	SinkErrors.WithLabelValues(sink).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}

// Push sends everything in the default registry to a Prometheus Pushgateway
// under the given job name. The adapter runs to completion, so nothing scrapes it.
func Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
