package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions as JSON strings under prefix+session_id,
// refreshing the TTL on every save so active conversations stay alive and
// abandoned ones expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. The caller owns the client
// lifecycle.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// Get loads a session. Misses, transport errors, and undecodable payloads
// all surface as (nil, nil): the turn proceeds with a fresh session rather
// than failing the request.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		slog.Warn("Session read failed, treating as absent",
			"session_id", sessionID, "error", err)
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		slog.Warn("Session payload undecodable, treating as absent",
			"session_id", sessionID, "error", err)
		return nil, nil
	}
	s.IntelBuffer.Normalize()
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.Touch()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session %s: %w", s.SessionID, err)
	}
	if err := r.client.Set(ctx, r.key(s.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.SessionID, err)
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}
	return n > 0, nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
