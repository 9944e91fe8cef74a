package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis statuses used as the "status" label.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid_input"
	StatusError   = "error"
)

// Registry owns the engine's Prometheus collectors.
type Registry struct {
	registry *prometheus.Registry

	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	RingsDetected      prometheus.Counter
	AccountsFlagged    *prometheus.CounterVec
	GraphSize          *prometheus.HistogramVec
	CyclesEnumerated   prometheus.Histogram
	CycleTruncations   prometheus.Counter
	StreamClients      prometheus.Gauge
	StreamEventsTotal  *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// NewRegistry creates a registry with process and Go runtime collectors plus
// the engine metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initAnalysisMetrics()
	r.initStreamMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringwatch_analyses_total",
			Help: "Total number of analysis runs",
		},
		[]string{"source", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ringwatch_analysis_duration_seconds",
			Help:    "Wall time of graph build plus detection in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"source"},
	)

	r.RingsDetected = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ringwatch_rings_detected_total",
			Help: "Total number of fraud rings reported",
		},
	)

	r.AccountsFlagged = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringwatch_accounts_flagged_total",
			Help: "Suspicious accounts reported, by final pattern",
		},
		[]string{"pattern"},
	)

	r.GraphSize = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ringwatch_graph_size",
			Help:    "Accounts and distinct transfer edges per analyzed graph",
			Buckets: prometheus.ExponentialBuckets(10, 10, 6),
		},
		[]string{"kind"},
	)

	r.CyclesEnumerated = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ringwatch_cycles_enumerated",
			Help:    "Simple cycles visited per analysis",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		},
	)

	r.CycleTruncations = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ringwatch_cycle_enumeration_truncated_total",
			Help: "Analyses where cycle enumeration hit its cap",
		},
	)
}

func (r *Registry) initStreamMetrics() {
	r.StreamClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ringwatch_stream_clients",
			Help: "Connected websocket dashboard clients",
		},
	)

	r.StreamEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringwatch_stream_events_total",
			Help: "Events pushed to the websocket hub",
		},
		[]string{"type"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringwatch_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	r.HTTPRequestLatency = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ringwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// AnalysisObservation is what one run contributes to the metrics.
type AnalysisObservation struct {
	Source          string
	Status          string
	Duration        time.Duration
	Accounts        int
	Edges           int
	Rings           int
	Patterns        []string
	Cycles          int
	CyclesTruncated bool
}

// ObserveAnalysis records a finished run. Failed runs only count toward
// AnalysesTotal.
func (r *Registry) ObserveAnalysis(o AnalysisObservation) {
	r.AnalysesTotal.WithLabelValues(o.Source, o.Status).Inc()
	if o.Status != StatusOK {
		return
	}

	r.AnalysisDuration.WithLabelValues(o.Source).Observe(o.Duration.Seconds())
	r.GraphSize.WithLabelValues("accounts").Observe(float64(o.Accounts))
	r.GraphSize.WithLabelValues("edges").Observe(float64(o.Edges))
	r.RingsDetected.Add(float64(o.Rings))
	for _, p := range o.Patterns {
		r.AccountsFlagged.WithLabelValues(p).Inc()
	}
	r.CyclesEnumerated.Observe(float64(o.Cycles))
	if o.CyclesTruncated {
		r.CycleTruncations.Inc()
	}
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(method, route, code string, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	r.HTTPRequestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
