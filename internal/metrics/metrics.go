package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FacetMetrics records facet outcomes on its own registry, so several
// instances never collide.
type FacetMetrics struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

func NewFacetMetrics() *FacetMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &FacetMetrics{
		registry: registry,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salmonstats",
			Name:      "facet_duration_seconds",
			Help:      "Time spent computing one facet of a shift stats request.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"facet", "status"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salmonstats",
			Name:      "facet_total",
			Help:      "Facet computations by outcome.",
		}, []string{"facet", "status"}),
	}
	registry.MustRegister(m.duration, m.total)
	return m
}

func (m *FacetMetrics) ObserveFacet(facet, status string, elapsedSeconds float64) {
	m.duration.WithLabelValues(facet, status).Observe(elapsedSeconds)
	m.total.WithLabelValues(facet, status).Inc()
}

// Handler serves the /metrics scrape endpoint.
func (m *FacetMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
