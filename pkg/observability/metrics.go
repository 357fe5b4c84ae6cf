// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the paydesk server.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HashBuckets defines histogram buckets suited for password hashing,
// ranging from 5ms to 2.5s.
var HashBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydesk_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paydesk_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paydesk_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// AuthOutcomesTotal counts gate decisions: "authenticated" or the
	// rejection reason.
	AuthOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydesk_auth_outcomes_total",
			Help: "Auth gate outcomes",
		},
		[]string{"outcome"},
	)

	// LoginAttemptsTotal counts login attempts by result (success, invalid, error).
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydesk_login_attempts_total",
			Help: "Login attempts",
		},
		[]string{"result"},
	)

	// PasswordHashDuration records time spent in argon2 derivations by
	// operation (hash, verify).
	PasswordHashDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paydesk_password_hash_duration_seconds",
			Help:    "Password hashing duration",
			Buckets: HashBuckets,
		},
		[]string{"op"},
	)

	// ExportsTotal counts spreadsheet exports by sink and status.
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydesk_exports_total",
			Help: "Record exports",
		},
		[]string{"sink", "status"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydesk_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		AuthOutcomesTotal,
		LoginAttemptsTotal,
		PasswordHashDuration,
		ExportsTotal,
		RateLimitRejectedTotal,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePasswordHash records one argon2 derivation. It matches the
// password.Hasher observer signature.
func ObservePasswordHash(op string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}
