package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	datasetLoads  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	viewRenders   *prometheus.CounterVec
	filterRows    prometheus.Histogram
	requestTiming *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		datasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditdash",
			Name:      "dataset_loads_total",
			Help:      "Dataset parse attempts by result.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditdash",
			Name:      "dataset_cache_lookups_total",
			Help:      "Dataset cache lookups by result (hit or miss).",
		}, []string{"result"}),
		viewRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditdash",
			Name:      "view_renders_total",
			Help:      "Dashboard view renders by view name.",
		}, []string{"view"}),
		filterRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "creditdash",
			Name:      "filter_rows",
			Help:      "Rows matching the active filter predicates.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		requestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "creditdash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(
		m.datasetLoads,
		m.cacheLookups,
		m.viewRenders,
		m.filterRows,
		m.requestTiming,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCacheLookup counts a dataset cache hit or miss
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveLoad counts a dataset load outcome
func (m *Metrics) ObserveLoad(result string) {
	m.datasetLoads.WithLabelValues(result).Inc()
}

// ObserveView counts a rendered view
func (m *Metrics) ObserveView(view string) {
	m.viewRenders.WithLabelValues(view).Inc()
}

// ObserveFilterRows records the size of a filtered view
func (m *Metrics) ObserveFilterRows(n int) {
	m.filterRows.Observe(float64(n))
}

// ObserveRequest records the latency of one HTTP request
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.requestTiming.WithLabelValues(route, status).Observe(seconds)
}

// Registry exposes the underlying registry, for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
