// Package metrics exposes prometheus counters for the trailer service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	// SubmissionsTotal counts intake attempts by result
	// (accepted, capacity_exceeded, failed).
	SubmissionsTotal *prometheus.CounterVec
	// ReviewsTotal counts moderation decisions by outcome
	// (approved, rejected, not_found).
	ReviewsTotal *prometheus.CounterVec
	// HeartbeatFailures counts failed liveness writes.
	HeartbeatFailures prometheus.Counter
}

// New creates the service metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trailer_submissions_total",
			Help: "Submission intake attempts by result.",
		}, []string{"result"}),
		ReviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trailer_reviews_total",
			Help: "Moderation decisions by outcome.",
		}, []string{"outcome"}),
		HeartbeatFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailer_heartbeat_failures_total",
			Help: "Failed liveness writes.",
		}),
	}
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
