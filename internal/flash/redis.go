package flash

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flash:"

// RedisStore keeps each session's messages in a Redis list that expires
// after ttl without activity.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore returns a store backed by client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Push implements Store.
func (s *RedisStore) Push(ctx context.Context, sessionID string, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("flash.RedisStore.Push: %w", err)
	}
	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flash.RedisStore.Push: %w", err)
	}
	return nil
}

// Drain implements Store. Reading and deleting happen in one MULTI block so
// concurrent requests of the same session never show a message twice.
func (s *RedisStore) Drain(ctx context.Context, sessionID string) ([]Message, error) {
	key := s.key(sessionID)
	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flash.RedisStore.Drain: %w", err)
	}

	raw := lrange.Val()
	if len(raw) == 0 {
		return nil, nil
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("flash.RedisStore.Drain: decode: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
