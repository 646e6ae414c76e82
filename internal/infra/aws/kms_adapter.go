package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// KMSAPI is the subset of the KMS client used by KMSAdapter.
type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSAdapter implements domain.SecretDecrypter using AWS KMS.
type KMSAdapter struct {
	client KMSAPI
	keyARN string
}

// NewKMSAdapter creates a new KMSAdapter bound to the master key keyARN.
func NewKMSAdapter(cfg aws.Config, keyARN string) (*KMSAdapter, error) {
	return NewKMSAdapterWithClient(kms.NewFromConfig(cfg), keyARN)
}

func NewKMSAdapterWithClient(client KMSAPI, keyARN string) (*KMSAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: kms client is required", app_errors.ErrInvalidConfig)
	}
	if keyARN == "" {
		return nil, fmt.Errorf("%w: kms key arn is required", app_errors.ErrInvalidConfig)
	}
	return &KMSAdapter{client: client, keyARN: keyARN}, nil
}

// DecryptSecret decrypts a secret that was encrypted under the adapter's master key.
func (a *KMSAdapter) DecryptSecret(ctx context.Context, ciphertext []byte) ([]byte, error) {
	result, err := a.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: ciphertext,
		KeyId:          &a.keyARN,
	})
	if err != nil {
		return nil, fmt.Errorf("kms decrypt failed: %w", err)
	}
	return result.Plaintext, nil
}
