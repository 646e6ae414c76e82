// Package keystore provides domain.KeyStore backends and decorators.
package keystore

import (
	"context"
	"fmt"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// Memory is an immutable in-memory key store. It is safe for concurrent use.
type Memory struct {
	keys map[string]domain.Secret
}

// NewMemory copies keys into a new store. Empty key ids and empty secrets are
// rejected.
func NewMemory(keys map[string]domain.Secret) (*Memory, error) {
	cloned := make(map[string]domain.Secret, len(keys))
	for id, secret := range keys {
		if id == "" {
			return nil, fmt.Errorf("%w: key id cannot be empty", app_errors.ErrInvalidConfig)
		}
		if len(secret) == 0 {
			return nil, fmt.Errorf("%w: key %q", app_errors.ErrEmptySecret, id)
		}
		cloned[id] = secret.Clone()
	}
	return &Memory{keys: cloned}, nil
}

// Lookup returns a copy of the secret bound to keyID.
func (m *Memory) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	secret, ok := m.keys[keyID]
	if !ok {
		return nil, false, nil
	}
	return secret.Clone(), true, nil
}

// Count returns the number of keys held.
func (m *Memory) Count() int {
	return len(m.keys)
}
