package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AudioCache stores synthesized audio by key.
type AudioCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, audio []byte) error
}

// CacheKey identifies audio for text spoken in languageTag.
func CacheKey(languageTag, text string) string {
	h := sha256.Sum256([]byte(languageTag + ":" + text))
	return hex.EncodeToString(h[:16])
}

// RedisCache keeps audio blobs with a TTL.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

var _ AudioCache = (*RedisCache)(nil)

// NewRedisCache creates a cache; ttl <= 0 means 24h.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{redis: client, ttl: ttl}
}

func audioKey(key string) string { return "speech:audio:" + key }

// Get returns ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.redis.Get(ctx, audioKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get audio: %w", err)
	}
	return data, true, nil
}

// Put stores audio and refreshes its TTL.
func (c *RedisCache) Put(ctx context.Context, key string, audio []byte) error {
	if err := c.redis.Set(ctx, audioKey(key), audio, c.ttl).Err(); err != nil {
		return fmt.Errorf("set audio: %w", err)
	}
	return nil
}
