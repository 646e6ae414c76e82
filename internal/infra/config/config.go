package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/spounge-ai/reqauth/internal/validation"
)

const envPrefix = "REQAUTH"

// flagBindings maps command line flags onto configuration keys.
var flagBindings = map[string]string{
	"max-delta-ms":  "authorization.max_delta_ms",
	"keystore-type": "keystore.type",
	"keystore-file": "keystore.file.path",
	"database-url":  "keystore.postgres.url",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
}

type Config struct {
	Authorization  AuthorizationConfig `mapstructure:"authorization"`
	KeyStore       KeyStoreConfig      `mapstructure:"keystore"`
	Audit          AuditingConfig      `mapstructure:"audit"`
	Logging        LoggingConfig       `mapstructure:"logging"`
	Metrics        MetricsConfig       `mapstructure:"metrics"`
	AWS            AWSConfig           `mapstructure:"aws"`
	ServiceVersion string              `mapstructure:"-"`
	BuildCommit    string              `mapstructure:"-"`
}

// Load reads configuration from path (or ./configs/config.yaml, ./config.yaml),
// the environment (REQAUTH_ prefix, dots become underscores) and, when given,
// command line flags. Flags win over the environment, which wins over the file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(envPrefix)
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(vip)

	if flags != nil {
		for flagName, key := range flagBindings {
			if f := flags.Lookup(flagName); f != nil {
				if err := vip.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ServiceVersion = getenv("REQAUTH_SERVICE_VERSION", "unknown")
	cfg.BuildCommit = getenv("REQAUTH_BUILD_COMMIT", "unknown")

	return &cfg, nil
}

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validation.RegisterCustomValidators(validate); err != nil {
		return fmt.Errorf("failed to register custom validators: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := c.KeyStore.validateBackend(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Audit.Enabled && c.Audit.Sink == AuditSinkPostgres && c.KeyStore.Postgres.URL == "" && c.Audit.Postgres.URL == "" {
		return fmt.Errorf("config validation failed: audit sink postgres requires audit.postgres.url or keystore.postgres.url")
	}
	return nil
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("authorization.max_delta_ms", DefaultMaxDeltaMS)

	vip.SetDefault("keystore.type", KeyStoreFile)
	vip.SetDefault("keystore.file.path", "./configs/keys.yaml")
	vip.SetDefault("keystore.lookup_timeout", "2s")
	vip.SetDefault("keystore.ssm.prefix", "/reqauth/keys/")
	vip.SetDefault("keystore.cache.ttl", "1m")
	vip.SetDefault("keystore.cache.negative_ttl", "5s")
	vip.SetDefault("keystore.circuit_breaker.max_failures", 5)
	vip.SetDefault("keystore.circuit_breaker.reset_timeout", "30s")
	vip.SetDefault("keystore.retry.max_attempts", 2)
	vip.SetDefault("keystore.retry.initial_backoff", "50ms")
	vip.SetDefault("keystore.retry.max_backoff", "500ms")

	vip.SetDefault("audit.sink", AuditSinkLog)
	vip.SetDefault("audit.asynchronous.channel_buffer_size", 1024)
	vip.SetDefault("audit.asynchronous.worker_count", 2)
	vip.SetDefault("audit.asynchronous.batch_size", 100)
	vip.SetDefault("audit.asynchronous.batch_timeout", "1s")

	vip.SetDefault("logging.level", "info")
	vip.SetDefault("logging.format", "text")

	vip.SetDefault("metrics.namespace", "reqauth")
}

// getenv returns an environment variable or a default value.
func getenv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
