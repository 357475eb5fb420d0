package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pawprint/backend/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter tracks request rates per client IP with expiration of idle
// entries.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

func newIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) *ipRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := time.Now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	for k, vv := range l.visitors {
		if now.Sub(vv.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}
	l.mu.Unlock()

	return v.limiter.Allow()
}

// RateLimitMiddleware limits each client IP to `requests` per `window` with
// the given burst capacity.
func RateLimitMiddleware(requests int, window time.Duration, burst int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(requests, window, burst, 5*time.Minute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(getRealIP(r)) {
				response.TooManyRequests(w, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
