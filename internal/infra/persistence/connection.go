package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spounge-ai/reqauth/internal/infra/config"
)

// NewConnectionPool creates a database connection pool and verifies it with a ping.
func NewConnectionPool(ctx context.Context, dbConfig config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbConfig.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	if dbConfig.RequireTLS && poolConfig.ConnConfig.TLSConfig == nil {
		return nil, fmt.Errorf("database connection must use TLS: set sslmode=require or stronger")
	}

	if dbConfig.Connection.MaxConns > 0 {
		poolConfig.MaxConns = dbConfig.Connection.MaxConns
	}
	if dbConfig.Connection.MinConns > 0 {
		poolConfig.MinConns = dbConfig.Connection.MinConns
	}
	if dbConfig.Connection.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = dbConfig.Connection.MaxConnIdleTime
	}
	if dbConfig.Connection.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = dbConfig.Connection.MaxConnLifetime
	}
	if dbConfig.Connection.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = dbConfig.Connection.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
