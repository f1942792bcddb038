package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gatherbase/server/internal/config"
)

// LoginRateLimit throttles credential endpoints per client IP to slow
// brute-force attempts.
func LoginRateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := store.limiter(clientIP(r))
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	perMin   int
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	perMin := cfg.LoginPerMinute
	if perMin <= 0 {
		perMin = 20
	}
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = perMin
	}
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMin:   perMin,
		burst:    burst,
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	s.evictStale()

	limiter := rate.NewLimiter(rate.Limit(float64(s.perMin)/60.0), s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// evictStale drops entries idle for over an hour. Called with mu held.
func (s *limiterStore) evictStale() {
	cutoff := time.Now().Add(-time.Hour)
	for key, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
