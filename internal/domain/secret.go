package domain

import (
	"context"
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret is the shared HMAC key bound to an API key identifier.
// It is never printed or logged.
type Secret []byte

// String hides the secret from fmt verbs.
func (s Secret) String() string {
	return redacted
}

// GoString hides the secret from %#v.
func (s Secret) GoString() string {
	return redacted
}

// LogValue hides the secret from slog.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Clone returns a copy that does not alias s.
func (s Secret) Clone() Secret {
	if s == nil {
		return nil
	}
	return append(Secret(nil), s...)
}

// KeyStore maps an API key identifier to its secret.
//
// An unknown key is reported as (nil, false, nil); absence is not an error.
// A non-nil error means the backend could not answer. Implementations must
// honour ctx cancellation without leaving shared state inconsistent.
type KeyStore interface {
	Lookup(ctx context.Context, keyID string) (Secret, bool, error)
}

// KeyStoreFunc adapts a function to the KeyStore interface.
type KeyStoreFunc func(ctx context.Context, keyID string) (Secret, bool, error)

// Lookup calls f.
func (f KeyStoreFunc) Lookup(ctx context.Context, keyID string) (Secret, bool, error) {
	return f(ctx, keyID)
}
