package provider

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
)

// CachedEmbedder memoizes embeddings by exact text. Absent results are not
// cached so a recovered provider is retried.
type CachedEmbedder struct {
	base  interfaces.Embedder
	cache *ristretto.Cache
}

var _ interfaces.Embedder = &CachedEmbedder{}

// NewCachedEmbedder keeps up to maxEntries vectors in memory.
func NewCachedEmbedder(base interfaces.Embedder, maxEntries int64) (*CachedEmbedder, error) {
	if maxEntries <= 0 {
		return nil, goerr.New("cache size must be positive", goerr.V("maxEntries", maxEntries))
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &CachedEmbedder{base: base, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) []float32 {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return append([]float32{}, vec...)
		}
	}

	vec := c.base.Embed(ctx, text)
	if len(vec) == 0 {
		return vec
	}

	c.cache.Set(text, append([]float32{}, vec...), 1)
	return vec
}

// Wait blocks until pending cache writes are applied.
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}

func (c *CachedEmbedder) Close() {
	c.cache.Close()
}
