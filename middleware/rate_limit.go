package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// LoginBurst and LoginRefill throttle login attempts per client address.
	LoginBurst  = 5
	LoginRefill = 12 * time.Second

	pruneThreshold = 500
	maxIdleAge     = 10 * time.Minute
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address and drops idle
// buckets once the map grows past pruneThreshold.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*ipEntry
	limit rate.Limit
	burst int
	now   func() time.Time
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*ipEntry),
		limit: limit,
		burst: burst,
		now:   time.Now,
	}
}

// NewLoginRateLimiter is the limiter used on the login routes.
func NewLoginRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(LoginRefill), LoginBurst)
}

func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.ips) > pruneThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.ips {
			if e.lastSeen.Before(cutoff) {
				delete(l.ips, k)
			}
		}
	}

	e, ok := l.ips[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.ips[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// RateLimit answers 429 once a client address runs out of tokens.
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.Limiter(ip).Allow() {
				writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
