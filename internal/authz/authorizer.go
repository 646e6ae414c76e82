// Package authz decides whether a signed request is authorized.
//
// A request is accepted when its key id resolves to a secret, its signature
// equals HMAC-SHA256(secret, decimal(timestamp) || payload) and its timestamp
// lies within the replay window around the authorizer's clock.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spounge-ai/reqauth/internal/clock"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/infra/metrics"
	"github.com/spounge-ai/reqauth/internal/signer"
	"github.com/spounge-ai/reqauth/internal/validation"
)

// DefaultMaxDelta is the default replay window half-width in milliseconds.
const DefaultMaxDelta int64 = 500

// Authorizer is safe for concurrent use. It holds no mutable state of its own.
type Authorizer struct {
	clock     clock.Clock
	keys      domain.KeyStore
	maxDelta  int64
	validator *validation.RequestValidator

	logger     *slog.Logger
	audit      domain.AuditLogger
	metrics    *metrics.Recorder
	classifier *app_errors.ErrorClassifier
}

// NewAuthorizer binds an authorizer to clk and keys for its lifetime.
func NewAuthorizer(clk clock.Clock, keys domain.KeyStore, opts ...Option) (*Authorizer, error) {
	if clk == nil {
		return nil, fmt.Errorf("%w: clock is required", app_errors.ErrInvalidConfig)
	}
	if keys == nil {
		return nil, fmt.Errorf("%w: key store is required", app_errors.ErrInvalidConfig)
	}

	v, err := validation.NewRequestValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create request validator: %w", err)
	}

	a := &Authorizer{
		clock:     clk,
		keys:      keys,
		maxDelta:  DefaultMaxDelta,
		validator: v,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.maxDelta < 0 {
		return nil, fmt.Errorf("%w: max delta must not be negative, got %d", app_errors.ErrInvalidConfig, a.maxDelta)
	}
	if a.classifier == nil {
		a.classifier = app_errors.NewErrorClassifier(a.logger)
	}
	return a, nil
}

// MaxDelta returns the configured replay window half-width in milliseconds.
func (a *Authorizer) MaxDelta() int64 {
	return a.maxDelta
}

// Authorize reports whether req is accepted. The only error returned wraps
// ErrMalformedRequest; every other failure is reported as false.
func (a *Authorizer) Authorize(ctx context.Context, req *domain.Request) (bool, error) {
	_, err := a.decide(ctx, req)
	if errors.Is(err, app_errors.ErrMalformedRequest) {
		return false, err
	}
	return err == nil, nil
}

// Check is Authorize for callers that want a single error value. It returns
// nil on acceptance, ErrMalformedRequest for malformed input and
// ErrUnauthorized for every other rejection.
func (a *Authorizer) Check(ctx context.Context, req *domain.Request) error {
	keyID, err := a.decide(ctx, req)
	if err == nil {
		return nil
	}

	classified := a.classifier.Classify(err, "authorize")
	classified.KeyID = keyID
	return a.classifier.LogAndSanitize(ctx, classified)
}

// decide runs the checks in order and stops at the first failure. The
// returned error carries the internal reason.
func (a *Authorizer) decide(ctx context.Context, req *domain.Request) (string, error) {
	start := time.Now()

	if err := a.validator.Validate(req); err != nil {
		a.record(ctx, req, 0, domain.DecisionMalformed, domain.ReasonMalformed, err, start)
		return "", err
	}
	keyID := req.Authorization.KeyID

	secret, found, err := a.keys.Lookup(ctx, keyID)
	if err != nil {
		a.logger.ErrorContext(ctx, "key store lookup failed", "key_id", keyID, "error", err)
		err = fmt.Errorf("%w: %w", app_errors.ErrKeyStoreUnavailable, err)
		a.record(ctx, req, 0, domain.DecisionRejected, domain.ReasonKeyStoreUnavailable, err, start)
		return keyID, err
	}
	if !found {
		a.record(ctx, req, 0, domain.DecisionRejected, domain.ReasonKeyNotFound, app_errors.ErrKeyNotFound, start)
		return keyID, app_errors.ErrKeyNotFound
	}

	expected, err := signer.SignRequest(secret, req.Timestamp, req.Payload)
	if err != nil {
		a.record(ctx, req, 0, domain.DecisionRejected, domain.ReasonKeyNotFound, err, start)
		return keyID, fmt.Errorf("%w: %w", app_errors.ErrKeyNotFound, err)
	}
	if !signer.Equal(expected, req.Authorization.Signature) {
		a.record(ctx, req, 0, domain.DecisionRejected, domain.ReasonSignatureMismatch, app_errors.ErrSignatureMismatch, start)
		return keyID, app_errors.ErrSignatureMismatch
	}

	now := a.clock.NowMillis()
	if !withinWindow(req.Timestamp, now, a.maxDelta) {
		a.record(ctx, req, now, domain.DecisionRejected, domain.ReasonTimestampOutOfWindow, app_errors.ErrTimestampOutOfWindow, start)
		return keyID, app_errors.ErrTimestampOutOfWindow
	}

	a.record(ctx, req, now, domain.DecisionAccepted, domain.ReasonAuthorized, nil, start)
	return keyID, nil
}

// withinWindow reports ts-delta <= now <= ts+delta without overflowing.
func withinWindow(ts, now, delta int64) bool {
	if now >= ts {
		return uint64(now)-uint64(ts) <= uint64(delta)
	}
	return uint64(ts)-uint64(now) <= uint64(delta)
}

// truncateKeyID cuts an unvalidated key id to MaxKeyIDLength bytes of valid
// UTF-8 before it is logged or stored.
func truncateKeyID(id string) string {
	if len(id) <= domain.MaxKeyIDLength {
		return id
	}
	return strings.ToValidUTF8(id[:domain.MaxKeyIDLength], "")
}

func (a *Authorizer) record(ctx context.Context, req *domain.Request, now int64, decision domain.Decision, reason domain.Reason, cause error, start time.Time) {
	a.metrics.ObserveDecision(decision, reason, time.Since(start))

	if a.audit == nil {
		return
	}
	event := &domain.AuditEvent{
		Decision:   decision,
		Reason:     reason,
		ObservedAt: now,
		Timestamp:  time.Now().UTC(),
	}
	if req != nil {
		event.KeyID = req.Authorization.KeyID
		if decision == domain.DecisionMalformed {
			event.KeyID = truncateKeyID(event.KeyID)
		}
		event.RequestTimestamp = req.Timestamp
		event.PayloadSize = len(req.Payload)
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	a.audit.AuditDecision(ctx, event)
}
