package keystore

import (
	"context"
	"errors"
	"time"

	"github.com/spounge-ai/reqauth/internal/domain"
	"github.com/spounge-ai/reqauth/pkg/execution"
)

// Retrying repeats failed lookups on the next store with backoff. Misses are
// answers and are not retried. Nothing is retried once the caller's context
// is done.
type Retrying struct {
	next   domain.KeyStore
	policy execution.RetryPolicy
}

func NewRetrying(next domain.KeyStore, maxAttempts int, initialBackoff, maxBackoff time.Duration) domain.KeyStore {
	if maxAttempts <= 1 {
		return next
	}
	return &Retrying{
		next: next,
		policy: execution.RetryPolicy{
			MaxAttempts:    maxAttempts,
			InitialBackoff: initialBackoff,
			MaxBackoff:     maxBackoff,
			Retryable:      func(err error) bool { return !errors.Is(err, context.Canceled) },
		},
	}
}

func (r *Retrying) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	policy := r.policy
	policy.Retryable = func(err error) bool {
		return ctx.Err() == nil && r.policy.Retryable(err)
	}
	res, err := execution.WithRetry(ctx, policy, func(ctx context.Context) (lookupResult, error) {
		secret, found, err := r.next.Lookup(ctx, keyID)
		return lookupResult{secret: secret, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.secret, res.found, nil
}
