package embeddings

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder remembers vectors for recently embedded inputs. A text always
// maps to the same vector for a given model, so entries never go stale.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(next Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vec)
	return vec, nil
}

func (c *CachedEmbedder) Dimension() int { return c.next.Dimension() }

func (c *CachedEmbedder) ModelInfo() string { return c.next.ModelInfo() }

func (c *CachedEmbedder) Len() int { return c.cache.Len() }
