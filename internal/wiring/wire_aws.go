package wiring

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	infra_config "github.com/spounge-ai/reqauth/internal/infra/config"
)

// LoadAWSConfig resolves AWS credentials the SDK's default way, pinned to the
// configured region and, for local stacks, a custom endpoint.
func LoadAWSConfig(ctx context.Context, cfg infra_config.AWSConfig) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return awsCfg, nil
}

// needsAWS reports whether any configured component talks to AWS.
func needsAWS(cfg *infra_config.Config) bool {
	switch cfg.KeyStore.Type {
	case infra_config.KeyStoreSSM, infra_config.KeyStoreS3:
		return true
	}
	return cfg.KeyStore.KMS.Enabled
}
