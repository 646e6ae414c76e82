package domain

import "context"

// SecretDecrypter unwraps secrets that are stored envelope-encrypted under a
// master key held by a Key Management Service.
type SecretDecrypter interface {
	DecryptSecret(ctx context.Context, ciphertext []byte) ([]byte, error)
}
