package config

// DefaultMaxDeltaMS is the replay window applied when none is configured.
const DefaultMaxDeltaMS int64 = 500

// AuthorizationConfig represents the authorization configuration.
type AuthorizationConfig struct {
	// MaxDeltaMS is the symmetric, inclusive tolerance between a request
	// timestamp and the verifier's clock.
	MaxDeltaMS int64 `mapstructure:"max_delta_ms" validate:"gte=0"`
}
