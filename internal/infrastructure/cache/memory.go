package cache

import (
	"context"
	"sync"
	"time"
)

// EmbeddingCache caches text-to-vector lookups. Query embeddings are hot
// (the same question gets asked in different scopes), so a cache in front of
// the embedding service saves API calls.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32, expiration time.Duration)
}

// MemoryStore is a simple in-memory embedding cache with expiration
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
}

type memoryItem struct {
	vec        []float32
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired()

	return store
}

// Set stores a vector with expiration
func (ms *MemoryStore) Set(_ context.Context, key string, vec []float32, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem{
		vec:        vec,
		expireTime: time.Now().Add(expiration),
	}
}

// Get retrieves a vector by key (returns false if not found or expired)
func (ms *MemoryStore) Get(_ context.Context, key string) ([]float32, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists {
		return nil, false
	}

	// Check if expired
	if time.Now().After(item.expireTime) {
		return nil, false
	}

	return item.vec, true
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, item := range ms.items {
			if now.After(item.expireTime) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
