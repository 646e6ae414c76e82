package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/spounge-ai/reqauth/internal/domain"
	"github.com/spounge-ai/reqauth/internal/infra/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	events  []*domain.AuditEvent
	batches int
	err     error
}

func (f *fakeRepo) CreateAuditEvent(_ context.Context, event *domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeRepo) CreateAuditEventsBatch(_ context.Context, events []*domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches++
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeRepo) GetAuditHistory(context.Context, string, int) ([]*domain.AuditEvent, error) {
	return nil, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func rejected(keyID string) *domain.AuditEvent {
	return &domain.AuditEvent{
		KeyID:            keyID,
		Decision:         domain.DecisionRejected,
		Reason:           domain.ReasonSignatureMismatch,
		RequestTimestamp: 1700000000000,
		PayloadSize:      12,
		Error:            "signature mismatch",
	}
}

func TestAuditLoggerWritesLogAndRepository(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	repo := &fakeRepo{}
	l := audit.NewAuditLogger(logger, repo)

	event := rejected("foo")
	l.AuditDecision(context.Background(), event)

	require.Equal(t, 1, repo.count())
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit_event", line["msg"])
	assert.Equal(t, "foo", line["key_id"])
	assert.Equal(t, "rejected", line["decision"])
	assert.Equal(t, "signature_mismatch", line["reason"])
	assert.Equal(t, event.ID, line["audit_id"])
}

func TestAuditLoggerSurvivesRepositoryFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l := audit.NewAuditLogger(logger, &fakeRepo{err: errors.New("db down")})

	assert.NotPanics(t, func() {
		l.AuditDecision(context.Background(), rejected("foo"))
	})
	assert.Contains(t, buf.String(), "failed to store audit event")
}

func TestAuditLoggerWithoutRepository(t *testing.T) {
	l := audit.NewAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	assert.NotPanics(t, func() {
		l.AuditDecision(context.Background(), rejected("foo"))
	})
}

func TestAsyncAuditLoggerFlushesOnStop(t *testing.T) {
	repo := &fakeRepo{}
	l := audit.NewAsyncAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, audit.AsyncAuditLoggerConfig{
		ChannelBufferSize: 100,
		WorkerCount:       2,
		BatchSize:         10,
		BatchTimeout:      time.Hour,
	})
	l.Start()

	for range 25 {
		l.AuditDecision(context.Background(), rejected("foo"))
	}
	l.Stop()
	l.Stop()

	assert.Equal(t, 25, repo.count())
	assert.Equal(t, int64(0), l.Dropped())
}

func TestAsyncAuditLoggerFlushesOnTimeout(t *testing.T) {
	repo := &fakeRepo{}
	l := audit.NewAsyncAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, audit.AsyncAuditLoggerConfig{
		ChannelBufferSize: 10,
		WorkerCount:       1,
		BatchSize:         100,
		BatchTimeout:      10 * time.Millisecond,
	})
	l.Start()
	defer l.Stop()

	l.AuditDecision(context.Background(), rejected("foo"))

	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAsyncAuditLoggerDropsWhenFullOrStopped(t *testing.T) {
	repo := &fakeRepo{}
	l := audit.NewAsyncAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, audit.AsyncAuditLoggerConfig{
		ChannelBufferSize: 1,
		WorkerCount:       1,
		BatchSize:         1,
		BatchTimeout:      time.Hour,
	})

	l.AuditDecision(context.Background(), rejected("a"))
	l.AuditDecision(context.Background(), rejected("b"))
	assert.Equal(t, int64(1), l.Dropped())

	l.Start()
	l.Stop()
	assert.Equal(t, 1, repo.count())

	l.AuditDecision(context.Background(), rejected("c"))
	assert.Equal(t, int64(2), l.Dropped())
}
