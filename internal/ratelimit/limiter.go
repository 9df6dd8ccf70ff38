package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBurstPerMinute applies when no per-minute rate is configured
const DefaultBurstPerMinute = 10

// A user's bucket is refilled after a minute, so older entries carry no state
const idleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BurstLimiter holds one token bucket per user. Buckets idle for longer than
// idleTTL are dropped. Safe for concurrent use.
type BurstLimiter struct {
	mu        sync.Mutex
	perMinute int
	limiters  map[string]*userLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewBurstLimiter allows perMinute requests per user with a burst of the same size
func NewBurstLimiter(perMinute int) *BurstLimiter {
	if perMinute <= 0 {
		perMinute = DefaultBurstPerMinute
	}
	return &BurstLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*userLimiter),
		now:       time.Now,
	}
}

// Allow reports whether userID may make another request now
func (b *BurstLimiter) Allow(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) >= idleTTL {
		b.sweep(now)
	}

	u, ok := b.limiters[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(rate.Limit(float64(b.perMinute)/60.0), b.perMinute)}
		b.limiters[userID] = u
	}
	u.lastSeen = now
	return u.limiter.AllowN(now, 1)
}

// Len returns the number of tracked users
func (b *BurstLimiter) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.limiters)
}

func (b *BurstLimiter) sweep(now time.Time) {
	for id, u := range b.limiters {
		if now.Sub(u.lastSeen) >= idleTTL {
			delete(b.limiters, id)
		}
	}
	b.lastSweep = now
}
