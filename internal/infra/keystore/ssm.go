package keystore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// Parameter names may only contain these characters; anything else cannot
// name a stored key and is treated as absent without a round trip.
var ssmKeyIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,256}$`)

// SSMAPI is the subset of the SSM client used by ParameterStore.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStore resolves secrets stored as SecureString parameters named
// prefix + keyID.
type ParameterStore struct {
	client SSMAPI
	prefix string
}

func NewParameterStore(client SSMAPI, prefix string) (*ParameterStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: ssm client is required", app_errors.ErrInvalidConfig)
	}
	return &ParameterStore{client: client, prefix: prefix}, nil
}

// NewParameterStoreFromConfig builds a ParameterStore from an AWS configuration.
func NewParameterStoreFromConfig(cfg aws.Config, prefix string) (*ParameterStore, error) {
	return NewParameterStore(ssm.NewFromConfig(cfg), prefix)
}

func (ps *ParameterStore) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	if !ssmKeyIDRegex.MatchString(keyID) {
		return nil, false, nil
	}

	name := ps.prefix + keyID
	result, err := ps.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to get parameter %s: %w", app_errors.ErrKeyStoreUnavailable, name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return nil, false, nil
	}
	return domain.Secret(*result.Parameter.Value), true, nil
}
