package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	IngestRequests      *prometheus.CounterVec
	IngestLatency       *prometheus.HistogramVec
	ValidationFailures  *prometheus.CounterVec
	AccessRejections    *prometheus.CounterVec
	AggregateRuns       *prometheus.CounterVec
	AggregateLatency    prometheus.Histogram
	RollupTenantCount   prometheus.Gauge
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posturehub_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "posturehub_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IngestRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posturehub_ingest_requests_total",
				Help: "Total number of ingestion requests.",
			},
			[]string{"tenant_id", "result"},
		),
		IngestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "posturehub_ingest_latency_seconds",
				Help:    "Latency of ingestion requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		ValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posturehub_validation_failures_total",
				Help: "Total number of schema validation failures by field.",
			},
			[]string{"field"},
		),
		AccessRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posturehub_access_rejections_total",
				Help: "Total number of access-guard rejections by reason.",
			},
			[]string{"reason"},
		),
		AggregateRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posturehub_aggregate_runs_total",
				Help: "Total number of aggregation runs.",
			},
			[]string{"result"},
		),
		AggregateLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "posturehub_aggregate_run_seconds",
				Help:    "Duration of aggregation runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RollupTenantCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "posturehub_rollup_tenant_count",
				Help: "Tenant count of the most recent rollup.",
			},
		),
	}
}

// RecordIngest records one ingestion request outcome.
func (m *Metrics) RecordIngest(tenantID, result string, duration time.Duration) {
	m.IngestRequests.WithLabelValues(tenantID, result).Inc()
	m.IngestLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordValidationFailure records a failed validation by offending field.
func (m *Metrics) RecordValidationFailure(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// RecordAccessRejection records an access-guard rejection by reason code.
func (m *Metrics) RecordAccessRejection(reason string) {
	m.AccessRejections.WithLabelValues(reason).Inc()
}

// RecordAggregateRun records the outcome of an aggregation run.
func (m *Metrics) RecordAggregateRun(result string, duration time.Duration, tenantCount int64) {
	m.AggregateRuns.WithLabelValues(result).Inc()
	m.AggregateLatency.Observe(duration.Seconds())
	if result == "success" {
		m.RollupTenantCount.Set(float64(tenantCount))
	}
}
