// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per key and remembers when each
// key was last seen so idle buckets can be dropped.
type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow takes one token from key's bucket.
func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// sweep drops buckets not used within idle and returns how many went.
func (s *limiterSet) sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	n := 0
	for k, b := range s.buckets {
		if b.seen.Before(cutoff) {
			delete(s.buckets, k)
			n++
		}
	}
	return n
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Defaults for NewAPIRateLimiter.
const (
	DefaultAPIRate  = 10
	DefaultAPIBurst = 20
)

// APIRateLimiter limits requests to the CMS API per client IP.
type APIRateLimiter struct {
	set *limiterSet
}

// NewAPIRateLimiter allows rps requests per second per IP with the given
// burst. Non-positive values select the defaults.
func NewAPIRateLimiter(rps float64, burst int) *APIRateLimiter {
	if rps <= 0 {
		rps = DefaultAPIRate
	}
	if burst <= 0 {
		burst = DefaultAPIBurst
	}
	return &APIRateLimiter{set: newLimiterSet(rps, burst)}
}

// Middleware answers over-limit requests with 429 rate_limit_exceeded.
func (rl *APIRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.set.allow(ip) {
				slog.Warn("api rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Sweep forgets clients idle for longer than idle.
func (rl *APIRateLimiter) Sweep(idle time.Duration) int {
	return rl.set.sweep(idle)
}

// clientIP returns the first valid address of X-Forwarded-For, then
// X-Real-IP, then the connection's remote host.
func clientIP(r *http.Request) string {
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(candidate); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
