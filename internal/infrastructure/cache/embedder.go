package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	pkgai "github.com/johnquangdev/meeting-rag/pkg/ai"
)

// CachedEmbedder fronts an embedding client with a cache keyed by text hash.
// Query texts repeat often (the same question asked in different scopes), so
// hits skip the external API call entirely.
type CachedEmbedder struct {
	inner pkgai.Embedder
	store EmbeddingCache
	ttl   time.Duration
}

// NewCachedEmbedder wraps an embedder with a cache
func NewCachedEmbedder(inner pkgai.Embedder, store EmbeddingCache, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedEmbedder{
		inner: inner,
		store: store,
		ttl:   ttl,
	}
}

// Embed returns a cached vector when available, otherwise calls through and
// caches the result.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)
	if vec, ok := e.store.Get(ctx, key); ok {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store.Set(ctx, key, vec, e.ttl)
	return vec, nil
}

// Dimensions reports the wrapped client's vector size.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
