// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	recommendations prometheus.Histogram
	metadataFetches *prometheus.CounterVec
	metadataAbsent  prometheus.Counter
	catalogLoads    *prometheus.CounterVec
	prefetchDropped prometheus.Counter
	activeSessions  prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "melodimatch_transitions_total",
				Help: "Session transitions by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		recommendations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "melodimatch_recommend_duration_seconds",
				Help:    "Time spent computing one recommendation batch",
				Buckets: prometheus.DefBuckets,
			},
		),
		metadataFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "melodimatch_metadata_fetches_total",
				Help: "Metadata batch lookups by cache result",
			},
			[]string{"result"},
		),
		metadataAbsent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "melodimatch_metadata_absent_total",
				Help: "Tracks the metadata service could not resolve",
			},
		),
		catalogLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "melodimatch_catalog_loads_total",
				Help: "Catalog load attempts by outcome",
			},
			[]string{"outcome"},
		),
		prefetchDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "melodimatch_prefetch_dropped_total",
				Help: "Prefetch jobs dropped because the queue was full",
			},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "melodimatch_sessions_active",
				Help: "Sessions currently held in memory",
			},
		),
	}

	m.registry.MustRegister(
		m.transitions,
		m.recommendations,
		m.metadataFetches,
		m.metadataAbsent,
		m.catalogLoads,
		m.prefetchDropped,
		m.activeSessions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Transition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveRecommend(d time.Duration) {
	if m == nil {
		return
	}
	m.recommendations.Observe(d.Seconds())
}

// MetadataFetch counts a batch lookup; result is "hit" or "miss".
func (m *Metrics) MetadataFetch(result string, absent int) {
	if m == nil {
		return
	}
	m.metadataFetches.WithLabelValues(result).Inc()
	if absent > 0 {
		m.metadataAbsent.Add(float64(absent))
	}
}

func (m *Metrics) CatalogLoad(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.catalogLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PrefetchDropped() {
	if m == nil {
		return
	}
	m.prefetchDropped.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
