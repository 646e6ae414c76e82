package keystore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/pkg/patterns/circuitbreaker"
)

type lookupResult struct {
	secret domain.Secret
	found  bool
}

// Breaker guards a remote KeyStore with a circuit breaker. While the circuit
// is open lookups fail fast with ErrKeyStoreUnavailable. Misses do not count
// as failures, and neither does any error returned after the caller's own
// context is done.
type Breaker struct {
	next    domain.KeyStore
	breaker *circuitbreaker.Breaker[lookupResult]
}

func NewBreaker(next domain.KeyStore, maxFailures int, resetTimeout time.Duration, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	cb := circuitbreaker.New[lookupResult](maxFailures, resetTimeout,
		circuitbreaker.WithFailureFilter[lookupResult](isBackendFailure),
		circuitbreaker.WithStateChange[lookupResult](func(from, to circuitbreaker.State) {
			logger.Warn("key store circuit breaker state changed", "from", from.String(), "to", to.String())
		}),
	)
	return &Breaker{next: next, breaker: cb}
}

func (b *Breaker) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	res, err := b.breaker.Execute(ctx, func(ctx context.Context) (lookupResult, error) {
		secret, found, err := b.next.Lookup(ctx, keyID)
		if err != nil && ctx.Err() != nil {
			err = callerGone{err: err}
		}
		return lookupResult{secret: secret, found: found}, err
	})
	if err != nil {
		var gone callerGone
		if errors.As(err, &gone) {
			return nil, false, gone.err
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, false, fmt.Errorf("%w: %w", app_errors.ErrKeyStoreUnavailable, err)
		}
		return nil, false, err
	}
	return res.secret, res.found, nil
}

// State reports the breaker state.
func (b *Breaker) State() circuitbreaker.State {
	return b.breaker.State()
}

// callerGone marks a lookup error observed after the caller abandoned the
// lookup. It says nothing about backend health.
type callerGone struct{ err error }

func (e callerGone) Error() string { return e.err.Error() }
func (e callerGone) Unwrap() error { return e.err }

func isBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	var gone callerGone
	if errors.As(err, &gone) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
