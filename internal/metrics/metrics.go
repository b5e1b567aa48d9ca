// Package metrics exposes Prometheus instrumentation for the ingestion pipeline
// and the HTTP bridge. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline stage latencies by stage: "ocr", "structure", "validate", "append"
	StageLatency *prometheus.HistogramVec

	// Ingestion outcomes: "success", "duplicate", "dry_run", or the failed stage
	IngestOutcome *prometheus.CounterVec

	RowsAppended prometheus.Counter

	// Registry mutations by operation and status
	CategoryChanges *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "receipts_stage_duration_seconds",
			Help:    "Duration of ingestion pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		IngestOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "receipts_ingest_total",
			Help: "Receipt ingestions by outcome",
		}, []string{"outcome"}),

		RowsAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipts_rows_appended_total",
			Help: "Spreadsheet rows appended",
		}),

		CategoryChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "receipts_category_changes_total",
			Help: "Category registry mutations by operation and status",
		}, []string{"op", "status"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "receipts_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "receipts_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementOutcome records the outcome of one ingestion.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.IngestOutcome.WithLabelValues(outcome).Inc()
	}
}

// AddRows counts appended spreadsheet rows.
func (m *Metrics) AddRows(n int) {
	if m != nil && n > 0 {
		m.RowsAppended.Add(float64(n))
	}
}

// IncrementCategoryChange records a registry mutation.
func (m *Metrics) IncrementCategoryChange(op, status string) {
	if m != nil {
		m.CategoryChanges.WithLabelValues(op, status).Inc()
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
		m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}

// Registry returns the underlying registry, or nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
