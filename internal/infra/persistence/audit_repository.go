package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	consts "github.com/spounge-ai/reqauth/internal/constants"
	"github.com/spounge-ai/reqauth/internal/domain"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) (*AuditRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("audit repository requires a database handle")
	}
	return &AuditRepository{db: db}, nil
}

func (r *AuditRepository) CreateAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, consts.Queries[consts.StmtInsertAuditEvent], auditArgs(event)...)
	if err != nil {
		return fmt.Errorf("failed to insert audit event %s: %w", event.ID, err)
	}
	return nil
}

func (r *AuditRepository) CreateAuditEventsBatch(ctx context.Context, events []*domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(consts.Queries[consts.StmtInsertAuditEvent], auditArgs(event)...)
	}

	br := r.db.SendBatch(ctx, batch)
	for _, event := range events {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert audit event %s: %w", event.ID, err)
		}
	}
	return br.Close()
}

func (r *AuditRepository) GetAuditHistory(ctx context.Context, keyID string, limit int) ([]*domain.AuditEvent, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, consts.Queries[consts.StmtGetAuditHistory], keyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history for %s: %w", keyID, err)
	}
	defer rows.Close()

	events := make([]*domain.AuditEvent, 0, limit)
	for rows.Next() {
		var (
			event    domain.AuditEvent
			decision string
			reason   string
		)
		if err := rows.Scan(&event.ID, &event.KeyID, &decision, &reason, &event.RequestTimestamp,
			&event.ObservedAt, &event.PayloadSize, &event.Error, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Decision = domain.Decision(decision)
		event.Reason = domain.Reason(reason)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit history: %w", err)
	}

	return events, nil
}

func auditArgs(event *domain.AuditEvent) []any {
	return []any{
		event.ID,
		event.KeyID,
		string(event.Decision),
		string(event.Reason),
		event.RequestTimestamp,
		event.ObservedAt,
		event.PayloadSize,
		event.Error,
		event.Timestamp,
	}
}
