// Package metrics defines the Prometheus collectors for crawls and
// searches and exposes a handler for scraping.
//
// Collectors live in a private registry rather than the global default so
// that tests and repeated runs in one process never collide on
// registration. All methods are safe to call on a nil *Metrics, which
// turns instrumentation off.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes used as label values.
const (
	SearchOK      = "ok"
	SearchInvalid = "invalid"
	SearchError   = "error"
)

// Metrics holds all collectors.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched     prometheus.Counter
	PagesStored      prometheus.Counter
	PagesFailed      *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	FrontierQueued   prometheus.Gauge
	FrontierInFlight prometheus.Gauge
	SearchRequests   *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textcrawl_pages_fetched_total",
			Help: "Total number of URLs for which an HTTP response was received.",
		}),
		PagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textcrawl_pages_stored_total",
			Help: "Total number of pages whose text was saved.",
		}),
		PagesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textcrawl_pages_failed_total",
			Help: "Total number of URLs that failed, by stage and error kind.",
		}, []string{"stage", "kind"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "textcrawl_fetch_duration_seconds",
			Help:    "Time spent fetching one URL, including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FrontierQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "textcrawl_frontier_queued",
			Help: "URLs waiting in the frontier of the current run.",
		}),
		FrontierInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "textcrawl_frontier_in_flight",
			Help: "URLs being processed by workers of the current run.",
		}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textcrawl_search_requests_total",
			Help: "Total search requests by outcome (ok, invalid, error).",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PagesFetched,
		m.PagesStored,
		m.PagesFailed,
		m.FetchDuration,
		m.FrontierQueued,
		m.FrontierInFlight,
		m.SearchRequests,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler serving the metrics in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records a fetch attempt that produced a response.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveStored records a saved page.
func (m *Metrics) ObserveStored() {
	if m == nil {
		return
	}
	m.PagesStored.Inc()
}

// ObserveFailure records a failed URL.
func (m *Metrics) ObserveFailure(stage, kind string) {
	if m == nil {
		return
	}
	m.PagesFailed.WithLabelValues(stage, kind).Inc()
}

// SetFrontier publishes the frontier queue and in-flight sizes.
func (m *Metrics) SetFrontier(queued, inFlight int) {
	if m == nil {
		return
	}
	m.FrontierQueued.Set(float64(queued))
	m.FrontierInFlight.Set(float64(inFlight))
}

// ObserveSearch records a search request outcome.
func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
}
