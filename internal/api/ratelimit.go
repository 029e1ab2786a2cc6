package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter enforces n requests per window for each client IP. Stale
// visitor state is pruned lazily under the same lock; there is no
// background goroutine to stop.
type limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	window   time.Duration
	desc     string
	lastGC   time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiter(n int, window time.Duration) *limiter {
	unit := "minute"
	if window == time.Hour {
		unit = "hour"
	}
	return &limiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(n)),
		burst:    n,
		window:   window,
		desc:     fmt.Sprintf("%d per 1 %s", n, unit),
	}
}

func (l *limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > l.window {
		cut := now.Add(-3 * l.window)
		for k, v := range l.visitors {
			if v.seen.Before(cut) {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = now
	return v.lim.Allow()
}

// limit wraps a handler with a per-IP rate limit. Disabled limits pass
// everything through, which is how the test harness runs.
func (s *Server) limit(l *limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.RateLimits {
			next(w, r)
			return
		}
		if !l.allow(s.clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":   "Rate limit exceeded",
				"message": l.desc,
			})
			return
		}
		next(w, r)
	}
}
