package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// requestID tags every request with an X-Request-ID, reusing the caller's
// when present, so middleware.Logger lines can be correlated.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StaffRateLimiter keeps one token bucket per staff member.
type StaffRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	entryTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewStaffRateLimiter allows rps receipts per second per staff member with
// bursts of up to burst.
func NewStaffRateLimiter(rps float64, burst int) *StaffRateLimiter {
	return &StaffRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		entryTTL: 30 * time.Minute,
	}
}

// Allow consumes one token for username.
func (rl *StaffRateLimiter) Allow(username string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[username]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[username] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()
	return entry.limiter.Allow()
}

// Cleanup drops buckets unused for longer than the entry TTL.
func (rl *StaffRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-rl.entryTTL)
	for name, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, name)
		}
	}
}

// Run cleans up stale buckets every interval until ctx is cancelled.
func (rl *StaffRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow(currentUsername(r)) {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.burst))
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "too many receipts, please try again shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
