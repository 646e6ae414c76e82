package keystore

import (
	"context"
	"fmt"

	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
)

// Decrypting unwraps envelope-encrypted secrets returned by the next store.
type Decrypting struct {
	next      domain.KeyStore
	decrypter domain.SecretDecrypter
}

func NewDecrypting(next domain.KeyStore, decrypter domain.SecretDecrypter) *Decrypting {
	return &Decrypting{next: next, decrypter: decrypter}
}

func (d *Decrypting) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	wrapped, found, err := d.next.Lookup(ctx, keyID)
	if err != nil || !found {
		return nil, found, err
	}

	plaintext, err := d.decrypter.DecryptSecret(ctx, wrapped)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to unwrap key %s: %w", app_errors.ErrKeyStoreUnavailable, keyID, err)
	}
	if len(plaintext) == 0 {
		return nil, false, nil
	}
	return plaintext, true, nil
}
