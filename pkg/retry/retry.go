package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries transport failures only. Cancellation and every
// other error type end the loop.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.IsType(err, errors.ErrorTypeTransport)
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx ends.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultExponentialBackoff()
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			cfg.Logger.ErrorWithFields("Max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt - 1,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				cfg.Logger.DebugWithFields("Operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		cfg.Logger.WarnWithFields("Retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult is Do for operations that return a value
func DoWithResult[T any](ctx context.Context, op func() (T, error), cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}
