package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	windowDuration  = 1 * time.Minute
	cleanupInterval = 1 * time.Minute
)

// RateLimiter wraps an http.Handler with per-IP rate limiting, used on
// the public lead-capture endpoint.
type RateLimiter struct {
	limit       int
	window      time.Duration
	requests    map[string][]time.Time // IP -> request timestamps
	mu          sync.Mutex
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

// NewRateLimiter creates a rate limiter allowing limit requests per IP
// per minute. Close must be called on shutdown to stop the background
// cleanup goroutine.
func NewRateLimiter(limit int) (*RateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}

	rl := &RateLimiter{
		limit:       limit,
		window:      windowDuration,
		requests:    make(map[string][]time.Time),
		cleanupDone: make(chan struct{}),
	}
	go rl.cleanupLoop()

	slog.Info("rate limiter initialized", "limit", limit, "window", windowDuration.String())
	return rl, nil
}

// Middleware returns an http.Handler enforcing the limit on next.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ExtractIP(r)
		if ip == "" {
			slog.Warn("rate limiter: failed to extract IP", "path", r.URL.Path)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		allowed, oldest := rl.allow(ip)
		if !allowed {
			retryAfter := int(rl.window.Seconds() - time.Since(oldest).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow records a request for ip and reports whether it is within the
// window limit, returning the oldest tracked request for Retry-After.
func (rl *RateLimiter) allow(ip string) (bool, time.Time) {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[ip] = recent
		return false, recent[0]
	}

	rl.requests[ip] = append(recent, now)
	return true, now
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.cleanupDone:
			return
		}
	}
}

// cleanup drops IPs with no requests inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, times := range rl.requests {
		var keep []time.Time
		for _, t := range times {
			if t.After(cutoff) {
				keep = append(keep, t)
			}
		}
		if len(keep) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = keep
		}
	}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.cleanupDone)
	})
}
