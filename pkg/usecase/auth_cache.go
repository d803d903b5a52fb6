package usecase

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

const (
	authCacheTTL        = 5 * time.Minute
	authCacheMaxEntries = 10000
)

type cachedToken struct {
	userID    model.UserID
	expiresAt time.Time
}

// authCache remembers verified tokens until the earlier of their expiry and
// authCacheTTL. At most authCacheMaxEntries tokens are kept.
type authCache struct {
	cache *ristretto.Cache
}

func newAuthCache(maxEntries int64) *authCache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		// every lookup misses and tokens are verified each time
		return &authCache{}
	}
	return &authCache{cache: cache}
}

func (c *authCache) get(token string, now time.Time) (model.UserID, bool) {
	if c.cache == nil {
		return 0, false
	}
	val, ok := c.cache.Get(token)
	if !ok {
		return 0, false
	}

	cached, ok := val.(*cachedToken)
	if !ok || now.After(cached.expiresAt) {
		c.cache.Del(token)
		return 0, false
	}

	return cached.userID, true
}

func (c *authCache) set(token string, userID model.UserID, tokenExpiry, now time.Time) {
	if c.cache == nil {
		return
	}
	expiresAt := now.Add(authCacheTTL)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	c.cache.SetWithTTL(token, &cachedToken{userID: userID, expiresAt: expiresAt}, 1, ttl)
	c.cache.Wait()
}
