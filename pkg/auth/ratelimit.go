package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/observability"
)

// RateLimiter checks whether another attempt under key is allowed.
// Implementations fail open on internal errors.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

// InProcessLimiter is a fixed-window limiter that tracks attempt counts
// per key in memory.
type InProcessLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter allows limit attempts per key per window. A limit
// of zero or less disables limiting.
func NewInProcessLimiter(limit int, window time.Duration) *InProcessLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &InProcessLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// Allow counts one attempt for key.
func (l *InProcessLimiter) Allow(_ context.Context, key string) error {
	if l.limit <= 0 {
		return nil // no limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= l.window {
		// New window; drop stale keys so the map stays bounded.
		if !ok && len(l.counters) >= 10000 {
			l.sweep(now)
		}
		l.counters[key] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > l.limit {
		return ErrTooManyRequests
	}
	return nil
}

func (l *InProcessLimiter) sweep(now time.Time) {
	for k, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, k)
		}
	}
}

// ClientIP returns the remote host of r without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns middleware that rejects requests over the limiter's
// budget with 429. scope labels the metric and key derives the bucket.
func RateLimit(limiter RateLimiter, scope string, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := scope + ":" + key(r)
			if err := limiter.Allow(r.Context(), k); err != nil {
				slog.Warn("rate limit exceeded",
					"scope", scope,
					"remote_addr", r.RemoteAddr,
				)
				observability.RateLimitRejectedTotal.WithLabelValues(scope).Inc()
				writeAPIError(w, http.StatusTooManyRequests,
					api.NewTooManyRequestsError("Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
