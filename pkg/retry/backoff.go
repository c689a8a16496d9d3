package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before the next attempt
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor spreads each delay by up to this fraction (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff suits waiting on a local process to come up
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
