package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles updates per chat.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[int64]*limiterEntry
	rate   rate.Limit
	burst  int
	now    func() time.Time
}

// NewRateLimiter allows perSecond updates per chat with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		limits: make(map[int64]*limiterEntry),
		rate:   rate.Limit(perSecond),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given chat.
func (rl *RateLimiter) getLimiter(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limits[chatID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limits[chatID] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

// Allow checks if an update from chatID is allowed now.
func (rl *RateLimiter) Allow(chatID int64) bool {
	return rl.getLimiter(chatID).AllowN(rl.now(), 1)
}

// Wait blocks until an update from chatID is allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	return rl.getLimiter(chatID).Wait(ctx)
}

// Cleanup forgets chats idle for longer than idle and returns how many.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for chatID, entry := range rl.limits {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limits, chatID)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked chats.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}
