// Package metrics provides Prometheus metrics collection for the route
// dispatch pipeline.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/declroute/declroute/domain/route"
)

// Collector holds all Prometheus metrics for the dispatch layer. Each
// collector owns its registry, so tests can create as many as they need.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	AuthFailures     *prometheus.CounterVec
}

// New creates a collector with all metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "declroute",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "declroute",
				Name:      "request_duration_seconds",
				Help:      "Request dispatch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "declroute",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being dispatched",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "declroute",
				Name:      "auth_failures_total",
				Help:      "Total number of rejected authentication attempts",
			},
			[]string{"path"},
		),
	}
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware returns a pipeline middleware recording request counts,
// durations and auth failures.
func (c *Collector) Middleware() route.Middleware {
	return func(next route.Wrapped) route.Wrapped {
		return func(ctx context.Context, req *route.Request) route.Response {
			c.RequestsInFlight.Inc()
			start := time.Now()

			resp := next(ctx, req)

			c.RequestsInFlight.Dec()
			c.RequestDuration.WithLabelValues(req.Method, req.Path).
				Observe(time.Since(start).Seconds())
			c.RequestsTotal.WithLabelValues(req.Method, req.Path, strconv.Itoa(resp.Status)).Inc()
			if resp.Status == http.StatusUnauthorized {
				c.AuthFailures.WithLabelValues(req.Path).Inc()
			}
			return resp
		}
	}
}
