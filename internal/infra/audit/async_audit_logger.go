package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spounge-ai/reqauth/internal/domain"
)

const writeTimeout = 5 * time.Second

// AsyncAuditLoggerConfig holds the configuration for the asynchronous logger.
type AsyncAuditLoggerConfig struct {
	ChannelBufferSize int
	WorkerCount       int
	BatchSize         int
	BatchTimeout      time.Duration
}

func (c AsyncAuditLoggerConfig) withDefaults() AsyncAuditLoggerConfig {
	if c.ChannelBufferSize <= 0 {
		c.ChannelBufferSize = 1024
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = time.Second
	}
	return c
}

// AsyncAuditLogger queues audit events and writes them to the repository in
// batches. AuditDecision never blocks; events are dropped when the queue is
// full or the logger has been stopped.
type AsyncAuditLogger struct {
	logger       *slog.Logger
	auditRepo    domain.AuditRepository
	eventChannel chan *domain.AuditEvent
	waitGroup    sync.WaitGroup
	config       AsyncAuditLoggerConfig

	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

// NewAsyncAuditLogger creates a new asynchronous audit logger.
func NewAsyncAuditLogger(logger *slog.Logger, auditRepo domain.AuditRepository, config AsyncAuditLoggerConfig) *AsyncAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()
	return &AsyncAuditLogger{
		logger:       logger,
		auditRepo:    auditRepo,
		eventChannel: make(chan *domain.AuditEvent, config.ChannelBufferSize),
		config:       config,
	}
}

// Start begins the worker goroutines that process audit events.
func (l *AsyncAuditLogger) Start() {
	l.waitGroup.Add(l.config.WorkerCount)
	for i := 0; i < l.config.WorkerCount; i++ {
		go l.worker()
	}
}

// Stop gracefully shuts down the audit logger, ensuring all queued events are
// processed. It is safe to call more than once.
func (l *AsyncAuditLogger) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	close(l.eventChannel)
	l.mu.Unlock()

	l.logger.Info("shutting down audit logger")
	l.waitGroup.Wait()
	l.logger.Info("audit logger shut down successfully", "dropped", l.dropped.Load())
}

// AuditDecision sends an audit event to the queue for asynchronous processing.
func (l *AsyncAuditLogger) AuditDecision(_ context.Context, event *domain.AuditEvent) {
	stamp(event)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		l.drop(event, "audit logger is stopped, event dropped")
		return
	}

	select {
	case l.eventChannel <- event:
	default:
		l.drop(event, "audit event channel is full, event dropped")
	}
}

// Dropped returns the number of events discarded so far.
func (l *AsyncAuditLogger) Dropped() int64 {
	return l.dropped.Load()
}

func (l *AsyncAuditLogger) drop(event *domain.AuditEvent, msg string) {
	l.dropped.Add(1)
	l.logger.Warn(msg, "audit_id", event.ID, "key_id", event.KeyID)
}

// worker reads events from the channel and writes them in batches.
func (l *AsyncAuditLogger) worker() {
	defer l.waitGroup.Done()

	ticker := time.NewTicker(l.config.BatchTimeout)
	defer ticker.Stop()

	batch := make([]*domain.AuditEvent, 0, l.config.BatchSize)

	for {
		select {
		case event, ok := <-l.eventChannel:
			if !ok {
				l.writeBatch(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= l.config.BatchSize {
				l.writeBatch(batch)
				batch = make([]*domain.AuditEvent, 0, l.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.writeBatch(batch)
				batch = make([]*domain.AuditEvent, 0, l.config.BatchSize)
			}
		}
	}
}

func (l *AsyncAuditLogger) writeBatch(batch []*domain.AuditEvent) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := l.auditRepo.CreateAuditEventsBatch(ctx, batch); err != nil {
		l.logger.Error("failed to write audit batch", "error", err, "size", len(batch))
	}
}
