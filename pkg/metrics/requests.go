package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records outcome metadata for backend API calls.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewRequestMetrics registers the API request metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of backend API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Backend API requests by status code.",
	}, []string{"method", "route", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_request_failures_total",
		Help: "Backend API requests that failed before a response arrived.",
	}, []string{"method", "route"})
	reg.MustRegister(duration, total, failures)
	return &RequestMetrics{
		duration: duration,
		total:    total,
		failures: failures,
	}
}

// ObserveRequest records a completed round-trip.
func (r *RequestMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	method, route = normalizeLabel(method), normalizeLabel(route)
	r.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	r.total.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// IncFailure records a request that never produced a response.
func (r *RequestMetrics) IncFailure(method, route string) {
	if r == nil || r.failures == nil {
		return
	}
	r.failures.WithLabelValues(normalizeLabel(method), normalizeLabel(route)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
