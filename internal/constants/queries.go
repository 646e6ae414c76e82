package constants

// Statement names
const (
	StmtLookupSecret     = "lookup_secret"
	StmtInsertAuditEvent = "insert_audit_event"
	StmtGetAuditHistory  = "get_audit_history"
)

var Queries = map[string]string{
	StmtLookupSecret: `
		SELECT secret
		FROM api_keys
		WHERE key_id = $1 AND disabled_at IS NULL`,

	StmtInsertAuditEvent: `
		INSERT INTO audit_events (id, key_id, decision, reason, request_timestamp, observed_at, payload_size, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,

	StmtGetAuditHistory: `
		SELECT id, key_id, decision, reason, request_timestamp, observed_at, payload_size, error_message, created_at
		FROM audit_events
		WHERE key_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
}
