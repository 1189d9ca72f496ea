package embedder

import (
	"context"
	"time"
)

// retryConfig controls exponential backoff for provider calls.
type retryConfig struct {
	attempts   int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		attempts:   3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   5 * time.Second,
		multiplier: 2.0,
	}
}

// retry runs fn up to cfg.attempts times with exponential backoff between
// failures. Context cancellation stops the loop immediately and wins over
// the last provider error.
func retry[T any](ctx context.Context, cfg retryConfig, fn func(context.Context) (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := cfg.baseDelay

	for attempt := 0; attempt < cfg.attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < cfg.attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.multiplier)
				if backoff > cfg.maxDelay {
					backoff = cfg.maxDelay
				}
			}
		}
	}

	return zero, lastErr
}
