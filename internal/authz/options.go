package authz

import (
	"log/slog"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/infra/metrics"
)

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithMaxDelta sets the replay window half-width in milliseconds. Negative
// values are rejected by NewAuthorizer.
func WithMaxDelta(ms int64) Option {
	return func(a *Authorizer) { a.maxDelta = ms }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuditLogger records every decision on audit.
func WithAuditLogger(audit domain.AuditLogger) Option {
	return func(a *Authorizer) { a.audit = audit }
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(a *Authorizer) { a.metrics = recorder }
}

func WithErrorClassifier(classifier *app_errors.ErrorClassifier) Option {
	return func(a *Authorizer) { a.classifier = classifier }
}
