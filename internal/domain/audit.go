package domain

import (
	"context"
	"time"
)

// Decision is the outcome of an authorization attempt.
type Decision string

const (
	DecisionAccepted  Decision = "accepted"
	DecisionRejected  Decision = "rejected"
	DecisionMalformed Decision = "malformed"
)

// Reason explains a decision. Reasons are for operators only and never leave
// the process through the authorization result.
type Reason string

const (
	ReasonAuthorized           Reason = "authorized"
	ReasonMalformed            Reason = "malformed_request"
	ReasonKeyNotFound          Reason = "key_not_found"
	ReasonSignatureMismatch    Reason = "signature_mismatch"
	ReasonTimestampOutOfWindow Reason = "timestamp_out_of_window"
	ReasonKeyStoreUnavailable  Reason = "keystore_unavailable"
)

type AuditLogger interface {
	AuditDecision(ctx context.Context, event *AuditEvent)
}

// AuditEvent records one authorization decision. ObservedAt is the clock
// reading used for the freshness check, or zero when the request was
// rejected before the clock was consulted.
type AuditEvent struct {
	ID               string    `json:"id"`
	KeyID            string    `json:"key_id"`
	Decision         Decision  `json:"decision"`
	Reason           Reason    `json:"reason"`
	RequestTimestamp int64     `json:"request_timestamp"`
	ObservedAt       int64     `json:"observed_at"`
	PayloadSize      int       `json:"payload_size"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type AuditRepository interface {
	CreateAuditEvent(ctx context.Context, event *AuditEvent) error
	CreateAuditEventsBatch(ctx context.Context, events []*AuditEvent) error
	GetAuditHistory(ctx context.Context, keyID string, limit int) ([]*AuditEvent, error)
}
