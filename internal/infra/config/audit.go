package config

import "time"

const (
	AuditSinkLog      = "log"
	AuditSinkPostgres = "postgres"
)

// AuditingConfig holds the configuration for auditing.
type AuditingConfig struct {
	Enabled      bool                       `mapstructure:"enabled"`
	Sink         string                     `mapstructure:"sink"         validate:"oneof=log postgres"`
	Postgres     PostgresConfig             `mapstructure:"postgres"`
	Asynchronous AsynchronousAuditingConfig `mapstructure:"asynchronous"`
}

// AsynchronousAuditingConfig holds the configuration for the asynchronous logger.
type AsynchronousAuditingConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	ChannelBufferSize int           `mapstructure:"channel_buffer_size" validate:"gte=1"`
	WorkerCount       int           `mapstructure:"worker_count"        validate:"gte=1,lte=64"`
	BatchSize         int           `mapstructure:"batch_size"          validate:"gte=1"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"       validate:"gt=0"`
}
