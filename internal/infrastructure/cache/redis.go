package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-rag/pkg/config"
	"github.com/johnquangdev/meeting-rag/pkg/vector"
)

// RedisStore is a Redis-backed embedding cache. Vectors are stored as the
// same little-endian float32 blob the vector store uses.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Set stores a vector with expiration
func (rs *RedisStore) Set(ctx context.Context, key string, vec []float32, expiration time.Duration) {
	// Cache writes are best-effort; a miss later just costs one API call.
	_ = rs.client.Set(ctx, "embedding:"+key, vector.EncodeBlob(vec), expiration).Err()
}

// Get retrieves a vector by key (returns false if not found)
func (rs *RedisStore) Get(ctx context.Context, key string) ([]float32, bool) {
	blob, err := rs.client.Get(ctx, "embedding:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	vec, err := vector.DecodeBlob(blob)
	if err != nil {
		return nil, false
	}
	return vec, true
}

// Close closes the underlying Redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
