// Package wiring assembles the authorizer and its dependencies from configuration.
package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spounge-ai/reqauth/internal/authz"
	"github.com/spounge-ai/reqauth/internal/clock"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/infra/audit"
	infra_aws "github.com/spounge-ai/reqauth/internal/infra/aws"
	infra_config "github.com/spounge-ai/reqauth/internal/infra/config"
	"github.com/spounge-ai/reqauth/internal/infra/keystore"
	"github.com/spounge-ai/reqauth/internal/infra/metrics"
	"github.com/spounge-ai/reqauth/internal/infra/persistence"
)

// Components holds everything Build created. Close releases it.
type Components struct {
	Authorizer *authz.Authorizer
	KeyStore   domain.KeyStore
	Audit      domain.AuditLogger
	AuditRepo  domain.AuditRepository
	Metrics    *metrics.Recorder

	closers []func()
}

// Close stops background workers and releases connections in reverse order
// of creation.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

type builder struct {
	cfg    *infra_config.Config
	logger *slog.Logger
	awsCfg *aws.Config
	pools  map[string]*pgxpool.Pool
	comps  *Components
}

// Build wires an Authorizer bound to clk from cfg.
func Build(ctx context.Context, cfg *infra_config.Config, clk clock.Clock, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &builder{
		cfg:    cfg,
		logger: logger,
		pools:  make(map[string]*pgxpool.Pool),
		comps:  &Components{},
	}

	comps, err := b.build(ctx, clk)
	if err != nil {
		b.comps.Close()
		return nil, err
	}
	return comps, nil
}

func (b *builder) build(ctx context.Context, clk clock.Clock) (*Components, error) {
	if b.cfg.Metrics.Enabled {
		b.comps.Metrics = metrics.NewRecorder(b.cfg.Metrics.Namespace)
	}

	if needsAWS(b.cfg) {
		awsCfg, err := LoadAWSConfig(ctx, b.cfg.AWS)
		if err != nil {
			return nil, err
		}
		b.awsCfg = &awsCfg
	}

	keys, err := b.provideKeyStore(ctx)
	if err != nil {
		return nil, err
	}
	b.comps.KeyStore = keys

	if err := b.provideAudit(ctx); err != nil {
		return nil, err
	}

	opts := []authz.Option{
		authz.WithMaxDelta(b.cfg.Authorization.MaxDeltaMS),
		authz.WithLogger(b.logger),
		authz.WithMetrics(b.comps.Metrics),
	}
	if b.comps.Audit != nil {
		opts = append(opts, authz.WithAuditLogger(b.comps.Audit))
	}

	authorizer, err := authz.NewAuthorizer(clk, keys, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}
	b.comps.Authorizer = authorizer
	return b.comps, nil
}

func (b *builder) provideKeyStore(ctx context.Context) (domain.KeyStore, error) {
	ksCfg := b.cfg.KeyStore

	var (
		store  domain.KeyStore
		remote bool
		err    error
	)
	switch ksCfg.Type {
	case infra_config.KeyStoreMemory:
		store, err = newConfiguredMemory(ksCfg.Memory)
	case infra_config.KeyStoreFile:
		store, err = keystore.NewFile(ksCfg.File.Path)
	case infra_config.KeyStoreS3:
		store, err = keystore.NewS3(ctx, s3.NewFromConfig(*b.awsCfg), ksCfg.S3.Bucket, ksCfg.S3.Key)
	case infra_config.KeyStoreSSM:
		remote = true
		store, err = keystore.NewParameterStoreFromConfig(*b.awsCfg, ksCfg.SSM.Prefix)
	case infra_config.KeyStorePostgres:
		remote = true
		var pool *pgxpool.Pool
		pool, err = b.pool(ctx, ksCfg.Postgres)
		if err == nil {
			store, err = keystore.NewPostgres(pool)
		}
	default:
		err = fmt.Errorf("%w: invalid keystore type: %s", app_errors.ErrInvalidConfig, ksCfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s key store: %w", ksCfg.Type, err)
	}

	if ksCfg.KMS.Enabled {
		adapter, err := infra_aws.NewKMSAdapter(*b.awsCfg, ksCfg.KMS.KeyARN)
		if err != nil {
			return nil, err
		}
		store = keystore.NewDecrypting(store, NewSecretDecrypter(adapter, ksCfg.Cache))
		remote = true
	}

	if remote {
		store = keystore.NewTimeout(store, ksCfg.LookupTimeout)
		store = keystore.NewRetrying(store, ksCfg.Retry.MaxAttempts, ksCfg.Retry.InitialBackoff, ksCfg.Retry.MaxBackoff)
		if ksCfg.CircuitBreaker.Enabled {
			store = keystore.NewBreaker(store, ksCfg.CircuitBreaker.MaxFailures, ksCfg.CircuitBreaker.ResetTimeout, b.logger)
		}
	}
	if ksCfg.Cache.Enabled {
		store = keystore.NewCached(store, ksCfg.Cache.TTL, ksCfg.Cache.NegativeTTL)
	}
	if b.comps.Metrics != nil {
		store = keystore.NewInstrumented(store, ksCfg.Type, b.comps.Metrics)
	}

	b.logger.Info("key store ready", "type", ksCfg.Type, "kms", ksCfg.KMS.Enabled, "cache", ksCfg.Cache.Enabled)
	return store, nil
}

// NewSecretDecrypter keeps decrypted plaintext in memory only when the key
// store cache is enabled.
func NewSecretDecrypter(next domain.SecretDecrypter, cacheCfg infra_config.CacheConfig) domain.SecretDecrypter {
	if !cacheCfg.Enabled {
		return next
	}
	return infra_aws.NewKMSCachedAdapter(next, cacheCfg.TTL)
}

func newConfiguredMemory(cfg infra_config.MemoryKeyStoreConfig) (*keystore.Memory, error) {
	keys := make(map[string]domain.Secret, len(cfg.Keys))
	for id, entry := range cfg.Keys {
		secret, err := keystore.DecodeSecret(entry.Secret, entry.Encoding)
		if err != nil {
			return nil, fmt.Errorf("invalid key %s: %w", id, err)
		}
		keys[id] = secret
	}
	return keystore.NewMemory(keys)
}

func (b *builder) provideAudit(ctx context.Context) error {
	auditCfg := b.cfg.Audit
	if !auditCfg.Enabled {
		return nil
	}

	if auditCfg.Sink == infra_config.AuditSinkLog {
		b.comps.Audit = audit.NewAuditLogger(b.logger, nil)
		return nil
	}

	pgCfg := auditCfg.Postgres
	if pgCfg.URL == "" {
		pgCfg = b.cfg.KeyStore.Postgres
	}
	pool, err := b.pool(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect audit database: %w", err)
	}
	repo, err := persistence.NewAuditRepository(pool)
	if err != nil {
		return err
	}
	b.comps.AuditRepo = repo

	if !auditCfg.Asynchronous.Enabled {
		b.comps.Audit = audit.NewAuditLogger(b.logger, repo)
		return nil
	}

	async := audit.NewAsyncAuditLogger(b.logger, repo, audit.AsyncAuditLoggerConfig{
		ChannelBufferSize: auditCfg.Asynchronous.ChannelBufferSize,
		WorkerCount:       auditCfg.Asynchronous.WorkerCount,
		BatchSize:         auditCfg.Asynchronous.BatchSize,
		BatchTimeout:      auditCfg.Asynchronous.BatchTimeout,
	})
	async.Start()
	b.comps.closers = append(b.comps.closers, async.Stop)
	b.comps.Audit = async
	return nil
}

// pool returns a connection pool for cfg, sharing one pool per URL.
func (b *builder) pool(ctx context.Context, cfg infra_config.PostgresConfig) (*pgxpool.Pool, error) {
	if p, ok := b.pools[cfg.URL]; ok {
		return p, nil
	}
	p, err := persistence.NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.pools[cfg.URL] = p
	b.comps.closers = append(b.comps.closers, p.Close)
	return p, nil
}
