// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the registration ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RegistrationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_registration_attempts_total",
		Help: "Registration attempts by outcome.",
	}, []string{"outcome"})
)

// Registration outcome labels.
const (
	OutcomeSuccess           = "success"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeCapacityExceeded  = "capacity_exceeded"
	OutcomeEventNotFound     = "event_not_found"
	OutcomeError             = "error"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
