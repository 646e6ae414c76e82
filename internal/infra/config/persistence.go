package config

import (
	"fmt"
	"time"
)

// Key store backends.
const (
	KeyStoreMemory   = "memory"
	KeyStoreFile     = "file"
	KeyStorePostgres = "postgres"
	KeyStoreSSM      = "ssm"
	KeyStoreS3       = "s3"
)

// KeyStoreConfig selects and configures the backend that resolves key ids to secrets.
type KeyStoreConfig struct {
	Type           string               `mapstructure:"type"           validate:"required,oneof=memory file postgres ssm s3"`
	LookupTimeout  time.Duration        `mapstructure:"lookup_timeout" validate:"gte=0"`
	Memory         MemoryKeyStoreConfig `mapstructure:"memory"`
	File           FileKeyStoreConfig   `mapstructure:"file"`
	Postgres       PostgresConfig       `mapstructure:"postgres"`
	SSM            SSMKeyStoreConfig    `mapstructure:"ssm"`
	S3             S3KeyStoreConfig     `mapstructure:"s3"`
	KMS            KMSConfig            `mapstructure:"kms"`
	Cache          CacheConfig          `mapstructure:"cache"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Retry          RetryConfig          `mapstructure:"retry"`
}

// KeyEntry is a secret as written in configuration.
type KeyEntry struct {
	Secret   string `mapstructure:"secret"   yaml:"secret"`
	Encoding string `mapstructure:"encoding" yaml:"encoding" validate:"omitempty,oneof=raw hex base64"`
}

type MemoryKeyStoreConfig struct {
	Keys map[string]KeyEntry `mapstructure:"keys" validate:"dive"`
}

type FileKeyStoreConfig struct {
	Path string `mapstructure:"path"`
}

type SSMKeyStoreConfig struct {
	Prefix string `mapstructure:"prefix"`
}

type S3KeyStoreConfig struct {
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
}

// KMSConfig enables envelope decryption of stored secrets.
type KMSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	KeyARN  string `mapstructure:"key_arn" validate:"omitempty,arn"`
}

type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	TTL         time.Duration `mapstructure:"ttl"          validate:"gte=0"`
	NegativeTTL time.Duration `mapstructure:"negative_ttl" validate:"gte=0"`
}

// CircuitBreakerConfig holds settings for the key store circuit breaker.
type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxFailures  int           `mapstructure:"max_failures"  validate:"gte=1"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout" validate:"gte=0"`
}

// RetryConfig bounds retries of failed remote lookups. MaxAttempts of one or
// less disables retrying.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"    validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"     validate:"gte=0"`
}

// PostgresConfig represents a PostgreSQL connection.
type PostgresConfig struct {
	URL        string             `mapstructure:"url" validate:"omitempty,url"`
	RequireTLS bool               `mapstructure:"require_tls"`
	Connection DBConnectionConfig `mapstructure:"connection"`
}

// DBConnectionConfig represents the database connection pool configuration.
type DBConnectionConfig struct {
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

func (k KeyStoreConfig) validateBackend() error {
	if k.KMS.Enabled && k.KMS.KeyARN == "" {
		return fmt.Errorf("keystore.kms.key_arn is required when kms is enabled")
	}
	switch k.Type {
	case KeyStoreFile:
		if k.File.Path == "" {
			return fmt.Errorf("keystore.file.path is required for the file backend")
		}
	case KeyStorePostgres:
		if k.Postgres.URL == "" {
			return fmt.Errorf("keystore.postgres.url is required for the postgres backend")
		}
	case KeyStoreSSM:
		if k.SSM.Prefix == "" {
			return fmt.Errorf("keystore.ssm.prefix is required for the ssm backend")
		}
	case KeyStoreS3:
		if k.S3.Bucket == "" || k.S3.Key == "" {
			return fmt.Errorf("keystore.s3.bucket and keystore.s3.key are required for the s3 backend")
		}
	}
	return nil
}
