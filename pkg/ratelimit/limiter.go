package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request may proceed
type Limiter interface {
	// Allow consumes a token if one is available
	Allow() bool
	// RetryAfter is how long until Allow can succeed again
	RetryAfter() time.Duration
}

// TokenBucket hands out capacity tokens per period, refilling one token
// every period/capacity.
type TokenBucket struct {
	now func() time.Time

	mu  sync.Mutex
	lim *rate.Limiter
}

// NewTokenBucket creates a full token bucket
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	return newTokenBucket(capacity, period, time.Now)
}

func newTokenBucket(capacity int, period time.Duration, now func() time.Time) *TokenBucket {
	every := rate.Every(period / time.Duration(capacity))
	return &TokenBucket{
		now: now,
		lim: rate.NewLimiter(every, capacity),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lim.AllowN(tb.now(), 1)
}

// RetryAfter returns zero while tokens remain
func (tb *TokenBucket) RetryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	r := tb.lim.ReserveN(now, 1)
	if !r.OK() {
		return rate.InfDuration
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}
