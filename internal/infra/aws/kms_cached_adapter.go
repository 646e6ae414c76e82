package aws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/spounge-ai/reqauth/internal/domain"
)

const (
	defaultDecryptTTL      = 5 * time.Minute
	decryptCleanupInterval = 10 * time.Minute
)

// KMSCachedAdapter adds a caching layer around a SecretDecrypter so repeated
// lookups of the same wrapped secret do not reach KMS.
type KMSCachedAdapter struct {
	next  domain.SecretDecrypter
	cache *cache.Cache
}

// NewKMSCachedAdapter creates a new KMSCachedAdapter. A non-positive ttl
// selects the default.
func NewKMSCachedAdapter(next domain.SecretDecrypter, ttl time.Duration) *KMSCachedAdapter {
	if ttl <= 0 {
		ttl = defaultDecryptTTL
	}
	return &KMSCachedAdapter{
		next:  next,
		cache: cache.New(ttl, decryptCleanupInterval),
	}
}

func (a *KMSCachedAdapter) DecryptSecret(ctx context.Context, ciphertext []byte) ([]byte, error) {
	sum := sha256.Sum256(ciphertext)
	cacheKey := hex.EncodeToString(sum[:])

	if plaintext, found := a.cache.Get(cacheKey); found {
		return cloneBytes(plaintext.([]byte)), nil
	}

	plaintext, err := a.next.DecryptSecret(ctx, ciphertext)
	if err != nil {
		return nil, err
	}

	a.cache.Set(cacheKey, cloneBytes(plaintext), cache.DefaultExpiration)
	return plaintext, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
