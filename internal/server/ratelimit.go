package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultRateLimitClients bounds the number of client IPs tracked at once.
// The least recently seen client is forgotten first.
const DefaultRateLimitClients = 4096

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP. Zero disables
	// rate limiting.
	RequestsPerSecond float64
	// Burst is the number of requests a client may send at once.
	Burst int
	// TrustProxy makes X-Forwarded-For and X-Real-IP identify the client.
	// Only enable it behind a proxy that sets these headers.
	TrustProxy bool
}

// RateLimiter implements a token bucket per client IP.
type RateLimiter struct {
	limiters   *lru.Cache[string, *rate.Limiter]
	limit      rate.Limit
	burst      int
	trustProxy bool
}

// NewRateLimiter creates a rate limiter. It returns nil when cfg disables
// rate limiting.
func NewRateLimiter(cfg RateLimitConfig) (*RateLimiter, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limiters, err := lru.New[string, *rate.Limiter](DefaultRateLimitClients)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiters:   limiters,
		limit:      rate.Limit(cfg.RequestsPerSecond),
		burst:      cfg.Burst,
		trustProxy: cfg.TrustProxy,
	}, nil
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	limiter, ok := rl.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		if existing, found, _ := rl.limiters.PeekOrAdd(ip, limiter); found {
			limiter = existing
		}
	}
	return limiter.Allow()
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
// A nil RateLimiter passes every request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.trustProxy)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Rate limit exceeded. Please try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address of r. Proxy headers are only
// consulted when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
