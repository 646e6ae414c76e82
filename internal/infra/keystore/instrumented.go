package keystore

import (
	"context"
	"errors"
	"time"

	"github.com/spounge-ai/reqauth/internal/domain"
	"github.com/spounge-ai/reqauth/internal/infra/metrics"
	"github.com/spounge-ai/reqauth/pkg/execution"
	"github.com/spounge-ai/reqauth/pkg/patterns/circuitbreaker"
)

// Instrumented counts lookups per result on a metrics.Recorder.
type Instrumented struct {
	next     domain.KeyStore
	backend  string
	recorder *metrics.Recorder
}

func NewInstrumented(next domain.KeyStore, backend string, recorder *metrics.Recorder) *Instrumented {
	return &Instrumented{next: next, backend: backend, recorder: recorder}
}

func (i *Instrumented) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	secret, found, err := i.next.Lookup(ctx, keyID)
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		i.recorder.ObserveLookup(i.backend, metrics.LookupBlocked)
	case err != nil:
		i.recorder.ObserveLookup(i.backend, metrics.LookupError)
	case found:
		i.recorder.ObserveLookup(i.backend, metrics.LookupHit)
	default:
		i.recorder.ObserveLookup(i.backend, metrics.LookupMiss)
	}
	return secret, found, err
}

// Timeout bounds every lookup on the next store by d.
type Timeout struct {
	next domain.KeyStore
	d    time.Duration
}

func NewTimeout(next domain.KeyStore, d time.Duration) domain.KeyStore {
	if d <= 0 {
		return next
	}
	return &Timeout{next: next, d: d}
}

func (t *Timeout) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	res, err := execution.WithTimeout(ctx, t.d, func(ctx context.Context) (lookupResult, error) {
		secret, found, err := t.next.Lookup(ctx, keyID)
		return lookupResult{secret: secret, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.secret, res.found, nil
}
