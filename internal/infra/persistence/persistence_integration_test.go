package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spounge-ai/reqauth/internal/domain"
	"github.com/spounge-ai/reqauth/internal/infra/config"
	"github.com/spounge-ai/reqauth/internal/infra/keystore"
	"github.com/spounge-ai/reqauth/internal/infra/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const databaseURLEnv = "REQAUTH_TEST_DATABASE_URL"

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(databaseURLEnv)
	if url == "" {
		t.Skipf("%s not set", databaseURLEnv)
	}

	require.NoError(t, persistence.Migrate(url))

	pool, err := persistence.NewConnectionPool(context.Background(), config.PostgresConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	cleanup := func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM audit_events")
		require.NoError(t, err)
		_, err = pool.Exec(context.Background(), "DELETE FROM api_keys")
		require.NoError(t, err)
	}
	cleanup()
	t.Cleanup(cleanup)
	return pool
}

func TestPostgresKeyStore(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, "INSERT INTO api_keys (key_id, secret) VALUES ($1, $2), ($3, $4)",
		"foo", []byte("ABCDEFGHIJK"), "retired", []byte("old"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "UPDATE api_keys SET disabled_at = now() WHERE key_id = $1", "retired")
	require.NoError(t, err)

	store, err := keystore.NewPostgres(pool)
	require.NoError(t, err)

	secret, found, err := store.Lookup(ctx, "foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.Secret("ABCDEFGHIJK"), secret)

	_, found, err = store.Lookup(ctx, "retired")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAuditRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	repo, err := persistence.NewAuditRepository(pool)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := &domain.AuditEvent{
		ID:               uuid.New().String(),
		KeyID:            "foo",
		Decision:         domain.DecisionAccepted,
		Reason:           domain.ReasonAuthorized,
		RequestTimestamp: 1700000000000,
		ObservedAt:       1700000000100,
		PayloadSize:      12,
		Timestamp:        base,
	}
	require.NoError(t, repo.CreateAuditEvent(ctx, first))

	batch := []*domain.AuditEvent{
		{ID: uuid.New().String(), KeyID: "foo", Decision: domain.DecisionRejected, Reason: domain.ReasonSignatureMismatch, Error: "signature mismatch", Timestamp: base.Add(time.Second)},
		{ID: uuid.New().String(), KeyID: "bar", Decision: domain.DecisionRejected, Reason: domain.ReasonKeyNotFound, Timestamp: base.Add(2 * time.Second)},
	}
	require.NoError(t, repo.CreateAuditEventsBatch(ctx, batch))

	history, err := repo.GetAuditHistory(ctx, "foo", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, batch[0].ID, history[0].ID)
	assert.Equal(t, domain.ReasonSignatureMismatch, history[0].Reason)
	assert.Equal(t, "signature mismatch", history[0].Error)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, int64(1700000000100), history[1].ObservedAt)

	limited, err := repo.GetAuditHistory(ctx, "foo", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
