package transport

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/observability"
)

// clientIdleTTL is how long an idle client's limiter is kept.
const clientIdleTTL = 10 * time.Minute

// RateLimiter is a per-client token bucket limiter for consultation
// routes. Clients are keyed by remote IP.
type RateLimiter struct {
	limit             rate.Limit
	burst             int
	trustForwardedFor bool

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute sustained
// requests per client with the given burst.
func NewRateLimiter(requestsPerMinute, burst int, trustForwardedFor bool) *RateLimiter {
	return &RateLimiter{
		limit:             rate.Limit(float64(requestsPerMinute) / 60),
		burst:             burst,
		trustForwardedFor: trustForwardedFor,
		clients:           make(map[string]*clientLimiter),
		now:               time.Now,
	}
}

// Allow reports whether a request from key may proceed now, and if not,
// how long until it would.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops limiters idle for longer than clientIdleTTL. Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < clientIdleTTL {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := l.Allow(l.ClientKey(r))
		if !ok {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observability.RateLimitRejectedTotal.WithLabelValues(route).Inc()
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			}
			WriteAPIError(w, api.NewTooManyRequestsError("rate limit exceeded, slow down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey identifies the caller of r.
func (l *RateLimiter) ClientKey(r *http.Request) string {
	if l.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
