// Package audit records authorization decisions.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spounge-ai/reqauth/internal/domain"
)

// Logger implements the domain.AuditLogger interface.
type Logger struct {
	logger    *slog.Logger
	auditRepo domain.AuditRepository
}

// NewAuditLogger creates a new audit logger. auditRepo may be nil, in which
// case events only reach the structured log.
func NewAuditLogger(logger *slog.Logger, auditRepo domain.AuditRepository) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		logger:    logger,
		auditRepo: auditRepo,
	}
}

// AuditDecision logs an audit event both to structured logs and persistent storage.
func (l *Logger) AuditDecision(ctx context.Context, event *domain.AuditEvent) {
	stamp(event)

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit_event", eventAttrs(event)...)

	if l.auditRepo != nil {
		if err := l.auditRepo.CreateAuditEvent(ctx, event); err != nil {
			l.logger.ErrorContext(ctx, "failed to store audit event",
				slog.String("audit_id", event.ID),
				slog.String("error", err.Error()))
		}
	}
}

// stamp fills in the id and time of an event that lacks them.
func stamp(event *domain.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

func eventAttrs(event *domain.AuditEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("audit_id", event.ID),
		slog.String("key_id", event.KeyID),
		slog.String("decision", string(event.Decision)),
		slog.String("reason", string(event.Reason)),
		slog.Int64("request_timestamp", event.RequestTimestamp),
		slog.Int64("observed_at", event.ObservedAt),
		slog.Int("payload_size", event.PayloadSize),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	return attrs
}
