package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"invoice-backend/pkg/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	proxies  TrustedProxies
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
// Forwarding headers are honoured only from proxies.
func NewRateLimiter(perMinute, burst int, proxies TrustedProxies) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
		proxies:  proxies,
	}
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		// Sweep idle entries on first sight of a new IP.
		for k, old := range l.visitors {
			if now.Sub(old.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.proxies.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			utils.Error(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
