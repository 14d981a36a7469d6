// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments for the HTTP layer.
type Collector struct {
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notekeeper_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notekeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.requests, c.latency)

	return c
}

// RecordRequest counts a completed request and observes its latency.
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.latency.Observe(duration.Seconds())
}

// Middleware instruments every request passing through it.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		c.RecordRequest(r.Method, wrapped.statusCode, time.Since(start))
	})
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}
