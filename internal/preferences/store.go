package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists a learner's language.
type Store interface {
	// Load returns ok=false when nothing was stored yet.
	Load(ctx context.Context, learner uuid.UUID) (Language, bool, error)
	Save(ctx context.Context, learner uuid.UUID, lang Language) error
}

// RedisStore keeps one key per learner with no expiry.
type RedisStore struct {
	redis *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps a Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func languageKey(learner uuid.UUID) string { return "pref:lang:" + learner.String() }

// Load reads the stored language. Unknown stored values read as absent.
func (s *RedisStore) Load(ctx context.Context, learner uuid.UUID) (Language, bool, error) {
	raw, err := s.redis.Get(ctx, languageKey(learner)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get language: %w", err)
	}
	lang, err := Parse(raw)
	if err != nil {
		return "", false, nil
	}
	return lang, true, nil
}

// Save writes the language.
func (s *RedisStore) Save(ctx context.Context, learner uuid.UUID, lang Language) error {
	if err := s.redis.Set(ctx, languageKey(learner), string(lang), 0).Err(); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}
