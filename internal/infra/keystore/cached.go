package keystore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/spounge-ai/reqauth/internal/domain"
)

const (
	defaultCacheTTL      = time.Minute
	cacheCleanupInterval = 5 * time.Minute
)

// Cached is a decorator for a KeyStore that remembers hits for ttl and misses
// for negativeTTL. Errors are never cached. A zero negativeTTL disables
// negative caching.
type Cached struct {
	next        domain.KeyStore
	cache       *cache.Cache
	negativeTTL time.Duration
}

// cacheEntry wraps a lookup result; a nil secret records a miss.
type cacheEntry struct {
	secret domain.Secret
}

func NewCached(next domain.KeyStore, ttl, negativeTTL time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{
		next:        next,
		cache:       cache.New(ttl, cacheCleanupInterval),
		negativeTTL: negativeTTL,
	}
}

func (c *Cached) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	if v, found := c.cache.Get(keyID); found {
		entry := v.(cacheEntry)
		if entry.secret == nil {
			return nil, false, nil
		}
		return entry.secret.Clone(), true, nil
	}

	secret, found, err := c.next.Lookup(ctx, keyID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		if c.negativeTTL > 0 {
			c.cache.Set(keyID, cacheEntry{}, c.negativeTTL)
		}
		return nil, false, nil
	}

	c.cache.Set(keyID, cacheEntry{secret: secret.Clone()}, cache.DefaultExpiration)
	return secret, true, nil
}

// Invalidate drops any cached result for keyID.
func (c *Cached) Invalidate(keyID string) {
	c.cache.Delete(keyID)
}

// Flush drops every cached result.
func (c *Cached) Flush() {
	c.cache.Flush()
}
