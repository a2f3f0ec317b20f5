// Package store holds the networked conversation stores: Redis (with a
// distributed turn lock), MongoDB and PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/ai-lawdesk/config"
	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

// RedisStore implements session storage using Redis. It also implements
// session.Locker.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// unlockScript deletes the lock only when it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisStore creates a new Redis-based session store.
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg)
}

// NewRedisStoreWithClient uses an existing client. Close closes it.
func NewRedisStoreWithClient(client redis.UniversalClient, cfg config.RedisConfig) *RedisStore {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &RedisStore{
		client:  client,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		lockTTL: lockTTL,
	}
}

// Save persists a session record to Redis.
func (s *RedisStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil: %w", lderrors.ErrInvalidInput)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(record.ID), raw, s.ttl)
		pipe.SAdd(ctx, s.setKey(), record.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load loads a session record from Redis. An expired record is pruned
// from the index.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.client.SRem(ctx, s.setKey(), id)
			return nil, fmt.Errorf("session %s: %w", id, lderrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record session.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return &record, nil
}

// Delete removes a session record from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, lderrors.ErrNotFound)
	}
	return nil
}

// List returns all session IDs.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.SCard(ctx, s.setKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(count), nil
}

// Exists checks if a session exists.
func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists > 0, nil
}

// TryLock takes the turn lock of id with SET NX PX. The lock expires after
// the configured lock TTL if its holder dies.
func (s *RedisStore) TryLock(ctx context.Context, id string) (func(context.Context) error, error) {
	key := s.lockKey(id)
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s locked elsewhere: %w", id, lderrors.ErrSessionBusy)
	}
	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to unlock session: %w", err)
		}
		return nil
	}, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "conversation:" + id
}

func (s *RedisStore) lockKey(id string) string {
	return s.prefix + "lock:" + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + "conversations"
}
