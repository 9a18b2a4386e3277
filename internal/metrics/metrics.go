// Package metrics exposes Prometheus metrics for diagram generation and
// the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syssam/schemaviz/compiler/gen"
)

// Namespace prefixes every metric name.
const Namespace = "schemaviz"

// Collector holds the application metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	GraphBuilds    *prometheus.CounterVec
	Entities       prometheus.Gauge
	Edges          prometheus.Gauge
	Skipped        prometheus.Gauge
	Collisions     prometheus.Gauge
	RenderDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	WatchEvents *prometheus.CounterVec
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GraphBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "graph_builds_total",
				Help:      "Total number of schema graph builds",
			},
			[]string{"status"},
		),
		Entities: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_entities",
				Help:      "Entities in the last built graph",
			},
		),
		Edges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_edges",
				Help:      "Resolved relationships in the last built graph",
			},
		),
		Skipped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_skipped_schemas",
				Help:      "Schemas skipped for a malformed identifier in the last build",
			},
		),
		Collisions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_node_id_collisions",
				Help:      "Node id collisions reported in the last build",
			},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "render_duration_seconds",
				Help:      "Diagram render duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),
		WatchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "watch_events_total",
				Help:      "File system events seen by the watcher",
			},
			[]string{"op"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.GraphBuilds,
		c.Entities,
		c.Edges,
		c.Skipped,
		c.Collisions,
		c.RenderDuration,
		c.CacheHits,
		c.CacheMisses,
		c.WatchEvents,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveGraph records the outcome of a graph build. A nil graph counts
// as a failed build and leaves the gauges untouched.
func (c *Collector) ObserveGraph(g *gen.Graph, err error) {
	if err != nil || g == nil {
		c.GraphBuilds.WithLabelValues("error").Inc()
		return
	}
	c.GraphBuilds.WithLabelValues("ok").Inc()
	c.Entities.Set(float64(len(g.Entities)))
	c.Edges.Set(float64(len(g.Edges)))
	c.Skipped.Set(float64(len(g.Skipped)))
	c.Collisions.Set(float64(len(g.Collisions)))
}

// ObserveRender records the time spent rendering format.
func (c *Collector) ObserveRender(format string, d time.Duration) {
	c.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
}

// CacheHit counts a cache lookup.
func (c *Collector) CacheHit(hit bool) {
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}
