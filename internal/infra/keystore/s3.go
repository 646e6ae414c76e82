package keystore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// maxKeyringSize bounds the keyring document fetched from S3.
const maxKeyringSize = 4 << 20

// S3API is the subset of the S3 client used to fetch a keyring.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3 fetches a YAML keyring document from s3://bucket/key and loads it
// into an in-memory store.
func NewS3(ctx context.Context, client S3API, bucket, key string) (*Memory, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: s3 client is required", app_errors.ErrInvalidConfig)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get keyring s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxKeyringSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring s3://%s/%s: %w", bucket, key, err)
	}
	if len(data) > maxKeyringSize {
		return nil, fmt.Errorf("%w: keyring s3://%s/%s exceeds %d bytes", app_errors.ErrInvalidConfig, bucket, key, maxKeyringSize)
	}

	keys, err := ParseKeyring(data)
	if err != nil {
		return nil, fmt.Errorf("keyring s3://%s/%s: %w", bucket, key, err)
	}
	return NewMemory(keys)
}
