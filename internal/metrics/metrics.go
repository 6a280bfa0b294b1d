// Package metrics holds the Prometheus instruments for graph builds, path
// searches and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "learnpath"

// Collector holds all Prometheus metrics for one service instance. Each
// collector owns its registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Build metrics
	Builds         *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
	SourcesSkipped prometheus.Counter
	GraphNodes     prometheus.Gauge
	GraphEdges     prometheus.Gauge

	// Search metrics
	PathSearches *prometheus.CounterVec
	PathCost     prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
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
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "graph_builds_total",
				Help:      "Total number of graph builds by outcome",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "graph_build_duration_seconds",
				Help:      "Graph build duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		),
		SourcesSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sources_skipped_total",
				Help:      "Total number of sources that could not be acquired",
			},
		),
		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes in the current graph",
			},
		),
		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "graph_edges",
				Help:      "Number of edges in the current graph",
			},
		),
		PathSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "path_searches_total",
				Help:      "Total number of path searches by outcome",
			},
			[]string{"status"},
		),
		PathCost: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "path_cost",
				Help:      "Aggregate cost of found paths",
				Buckets:   prometheus.LinearBuckets(0, 0.5, 10),
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Builds,
		c.BuildDuration,
		c.SourcesSkipped,
		c.GraphNodes,
		c.GraphEdges,
		c.PathSearches,
		c.PathCost,
	)

	return c
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records a completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBuild records a build outcome. nodes and edges are ignored on failure.
func (c *Collector) RecordBuild(ok bool, skipped, nodes, edges int, d time.Duration) {
	if c == nil {
		return
	}
	c.SourcesSkipped.Add(float64(skipped))
	c.BuildDuration.Observe(d.Seconds())
	if !ok {
		c.Builds.WithLabelValues("error").Inc()
		return
	}
	c.Builds.WithLabelValues("ok").Inc()
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}

// RecordPathSearch records a search outcome: "found", "not_found" or "error".
func (c *Collector) RecordPathSearch(status string, cost float64) {
	if c == nil {
		return
	}
	c.PathSearches.WithLabelValues(status).Inc()
	if status == "found" {
		c.PathCost.Observe(cost)
	}
}
