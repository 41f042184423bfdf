// Package metrics defines the Prometheus collectors of the donations API.
//
// A Metrics value is created once at startup against a registerer. Tests
// build their own against a fresh prometheus.NewRegistry so they never touch
// the process-wide default registry. Every method is safe on a nil *Metrics,
// which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/donations/api/internal/models"
)

const namespace = "donations"

// Load results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds every collector.
type Metrics struct {
	// DatasetLoads counts year loads. Labels: year, source (cache, remote), result.
	DatasetLoads *prometheus.CounterVec
	// DatasetLoadDuration measures year loads. Labels: source.
	DatasetLoadDuration *prometheus.HistogramVec
	// DatasetRecords is the record count of each loaded year. Labels: year.
	DatasetRecords *prometheus.GaugeVec
	// CacheErrors counts persistence failures that did not fail a request.
	// Labels: operation (load, save, clear).
	CacheErrors *prometheus.CounterVec

	// ViewBuildDuration measures analytics view computation. Labels: view.
	ViewBuildDuration *prometheus.HistogramVec
	// ViewRows is the row count of the last computed view. Labels: view.
	ViewRows *prometheus.GaugeVec

	// HTTPRequests counts served requests. Labels: method, route, status.
	HTTPRequests *prometheus.CounterVec
	// HTTPRequestDuration measures served requests. Labels: method, route.
	HTTPRequestDuration *prometheus.HistogramVec
	// PanicsRecovered counts handler panics turned into 500 responses.
	PanicsRecovered prometheus.Counter
}

// New creates and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		DatasetLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Dataset year loads by year, source and result",
		}, []string{"year", "source", "result"}),
		DatasetLoadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Dataset year load duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"source"}),
		DatasetRecords: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Number of records held for each loaded year",
		}, []string{"year"}),
		CacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Dataset cache failures by operation",
		}, []string{"operation"}),
		ViewBuildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "view_duration_seconds",
			Help:      "Analytics view computation time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"view"}),
		ViewRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "view_rows",
			Help:      "Row count of the most recently computed view",
		}, []string{"view"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PanicsRecovered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_recovered_total",
			Help:      "Handler panics recovered by middleware",
		}),
	}
}

// ObserveLoad records one finished year load.
func (m *Metrics) ObserveLoad(year models.Year, source, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.DatasetLoads.WithLabelValues(yearLabel(year), source, result).Inc()
	m.DatasetLoadDuration.WithLabelValues(source).Observe(d.Seconds())
}

// SetRecords publishes the record count of year. A negative n removes the
// series, used when a year is unloaded.
func (m *Metrics) SetRecords(year models.Year, n int) {
	if m == nil {
		return
	}
	if n < 0 {
		m.DatasetRecords.DeleteLabelValues(yearLabel(year))
		return
	}
	m.DatasetRecords.WithLabelValues(yearLabel(year)).Set(float64(n))
}

// CacheError counts a swallowed persistence failure.
func (m *Metrics) CacheError(operation string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(operation).Inc()
}

// ObserveView records one view computation.
func (m *Metrics) ObserveView(view string, rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.ViewBuildDuration.WithLabelValues(view).Observe(d.Seconds())
	m.ViewRows.WithLabelValues(view).Set(float64(rows))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// PanicRecovered counts one recovered panic.
func (m *Metrics) PanicRecovered() {
	if m == nil {
		return
	}
	m.PanicsRecovered.Inc()
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func yearLabel(y models.Year) string {
	return strconv.Itoa(int(y))
}
