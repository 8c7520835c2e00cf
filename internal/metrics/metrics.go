// ABOUTME: Prometheus collectors for drift analyses and the dashboard
// ABOUTME: Each Metrics value owns its registry so tests and binaries stay isolated
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drift_tracer"

// Metrics groups the collectors recorded by analyses and the dashboard
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	RowsProcessed    prometheus.Counter
	WrapsTotal       prometheus.Counter
	WarningsTotal    prometheus.Counter
	DriftRate        *prometheus.GaugeVec
	HTTPRequests     *prometheus.CounterVec
	WSClients        prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of drift log analyses by result",
		}, []string{"result"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a single drift log analysis in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Total number of log rows turned into drift samples",
		}),
		WrapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timestamp_wraps_total",
			Help:      "Total number of committed 32-bit timestamp wraparounds",
		}),
		WarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replica_warnings_total",
			Help:      "Total number of empty replica windows",
		}),
		DriftRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_drift_rate_ms_per_second",
			Help:      "Average drift rate of the most recent analysis",
		}, []string{"series"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of dashboard HTTP requests by route and status class",
		}, []string{"route", "code"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected dashboard WebSocket clients",
		}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.RowsProcessed,
		m.WrapsTotal,
		m.WarningsTotal,
		m.DriftRate,
		m.HTTPRequests,
		m.WSClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one finished analysis. err marks it failed.
func (m *Metrics) ObserveAnalysis(elapsed time.Duration, rows, wraps, warnings int, err error) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.AnalysesTotal.WithLabelValues("error").Inc()
		return
	}
	m.AnalysesTotal.WithLabelValues("ok").Inc()
	m.RowsProcessed.Add(float64(rows))
	m.WrapsTotal.Add(float64(wraps))
	m.WarningsTotal.Add(float64(warnings))
}

// SetDriftRate records the drift rate of the latest analysis for a series
func (m *Metrics) SetDriftRate(series string, rate float64) {
	if m == nil {
		return
	}
	m.DriftRate.WithLabelValues(series).Set(rate)
}

// CountRequest records a dashboard request outcome
func (m *Metrics) CountRequest(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
