// Package metrics holds the Prometheus collectors for calls made to the DUCA API
// and for the requests served by the mock backend.
//
// Collectors live on their own registry so the CLI can dump them to a textfile
// (node_exporter textfile collector format) and tests can inspect them in isolation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ducactl"

// Collectors groups every metric exposed by the process.
type Collectors struct {
	registry *prometheus.Registry

	// APIRequestsTotal counts attempts against the DUCA API.
	// Labels:
	//   - operation: e.g. "list_pending", "reject_declaration"
	//   - method: HTTP method
	//   - outcome: "success", "http", "timeout", "network", "malformed", "canceled"
	APIRequestsTotal *prometheus.CounterVec

	// APIRequestDuration measures one attempt from send to decoded body.
	APIRequestDuration *prometheus.HistogramVec

	// ServedRequestsTotal counts requests handled by the mock backend, by route pattern and status.
	ServedRequestsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of request attempts sent to the DUCA API, by outcome.",
			},
			[]string{"operation", "method", "outcome"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of request attempts sent to the DUCA API.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		ServedRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mock",
				Name:      "http_requests_total",
				Help:      "Total number of requests served by the mock DUCA backend.",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// ObserveRequest records one executor attempt.
func (c *Collectors) ObserveRequest(operation, method, outcome string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	c.APIRequestsTotal.WithLabelValues(operation, method, outcome).Inc()
	c.APIRequestDuration.WithLabelValues(operation, method).Observe(duration.Seconds())
}

// Registry exposes the underlying registry as a Gatherer.
func (c *Collectors) Registry() prometheus.Gatherer {
	return c.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path atomically.
func (c *Collectors) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
