// Package telemetry exposes Prometheus metrics for the hospital client core:
// outbound backend API calls, cache synchronization outcomes, cache size per
// collection, and requests served by the local read API. All collectors are
// registered on a private registry so that tests and multiple instances never
// collide on the global default registry.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hms"

// Sync outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// Metrics owns the collectors. A nil *Metrics is valid and records nothing,
// so components can take an optional metrics dependency.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	syncResults *prometheus.CounterVec
	storeSize   *prometheus.GaugeVec
	httpServed  *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API requests by resource, method and status code.",
		}, []string{"resource", "method", "code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "method"}),
		syncResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "sync_total",
			Help:      "Per collection results of full cache synchronization.",
		}, []string{"collection", "outcome"}),
		storeSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "entities",
			Help:      "Number of cached entities per collection.",
		}, []string{"collection"}),
		httpServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the local read API.",
		}, []string{"method", "route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests served by the local read API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.syncResults,
		m.storeSize,
		m.httpServed,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAPI records one backend call. status is 0 when the request failed
// before a response arrived.
func (m *Metrics) ObserveAPI(resource, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(resource, method, code).Inc()
	m.apiLatency.WithLabelValues(resource, method).Observe(d.Seconds())
}

// ObserveSync records whether one collection was fetched during a sync.
func (m *Metrics) ObserveSync(collection string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.syncResults.WithLabelValues(collection, outcome).Inc()
}

// SetStoreSize records the current size of a cached collection.
func (m *Metrics) SetStoreSize(collection string, n int) {
	if m == nil {
		return
	}
	m.storeSize.WithLabelValues(collection).Set(float64(n))
}

// ---------------------------------------------------------------------------
// MetricsMiddleware
// ---------------------------------------------------------------------------

// MetricsMiddleware returns an Echo middleware that records local read API
// request counts and latency keyed by route pattern.
func (m *Metrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method
			m.httpServed.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ---------------------------------------------------------------------------
// PrometheusHandler
// ---------------------------------------------------------------------------

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PrometheusHandler adapts Handler for echo routes such as GET /metrics.
func (m *Metrics) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(m.Handler())
}
