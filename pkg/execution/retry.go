package execution

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryPolicy bounds WithRetry. Retryable decides which errors are worth
// another attempt; nil retries every error.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// WithRetry executes fn up to MaxAttempts times with exponential backoff and
// jitter between attempts. It stops early when ctx is done and returns the
// last error from fn.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn RetryableFunc[T]) (T, error) {
	attempts := max(policy.MaxAttempts, 1)

	var (
		result T
		err    error
	)
	for i := 0; i < attempts; i++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 || (policy.Retryable != nil && !policy.Retryable(err)) {
			break
		}

		timer := time.NewTimer(backoff(policy, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
	}
	return result, err
}

func backoff(policy RetryPolicy, attempt int) time.Duration {
	d := policy.InitialBackoff << attempt
	if policy.MaxBackoff > 0 && (d > policy.MaxBackoff || d <= 0) {
		d = policy.MaxBackoff
	}
	if d <= 0 {
		return 0
	}
	return d + rand.N(d/2+1)
}
