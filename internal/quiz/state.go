package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore persists in-progress sessions.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	// Load returns nil, nil when the session does not exist.
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Lock serializes submissions for one session. It returns ErrSessionBusy
	// when another holder has it.
	Lock(ctx context.Context, id uuid.UUID) (func() error, error)
}

const (
	defaultSessionTTL = 2 * time.Hour
	defaultLockTTL    = 5 * time.Second
)

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisStore keeps sessions as JSON documents in Redis.
type RedisStore struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	logger  zerolog.Logger
}

var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a store; zero durations fall back to defaults.
func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &RedisStore{
		redis:   client,
		ttl:     ttl,
		lockTTL: lockTTL,
		logger:  logger.With().Str("component", "practice_store").Logger(),
	}
}

func sessionKey(id uuid.UUID) string { return "practice:session:" + id.String() }

func lockKey(id uuid.UUID) string { return "practice:lock:" + id.String() }

// Lock acquires a short-lived SET NX lock owned by a random token.
func (s *RedisStore) Lock(ctx context.Context, id uuid.UUID) (func() error, error) {
	key := lockKey(id)
	token := uuid.NewString()

	acquired, err := s.redis.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrSessionBusy
	}

	unlock := func() error {
		// Released on a fresh context so a cancelled request still frees it.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return unlockScript.Run(releaseCtx, s.redis, []string{key}, token).Err()
	}
	return unlock, nil
}

// Save writes the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Load reads a session.
func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("corrupted practice session")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
