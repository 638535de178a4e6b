// Package history stores per-phone conversation turns for prompt assembly.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomarcello/Waviate/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Store is a conversation history backend. *database.Store and *RedisStore implement it.
type Store interface {
	Load(ctx context.Context, phone string, limit int) ([]models.Turn, error)
	Append(ctx context.Context, phone string, turns ...models.Turn) error
}

const (
	DefaultTTL = 24 * time.Hour
	// maxStored bounds the redis list; prompts never need more than a handful of turns.
	maxStored = 200
)

type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("history: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: client, ttl: ttl}
}

// Append pushes turns onto the phone's list and refreshes its expiry.
func (s *RedisStore) Append(ctx context.Context, phone string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, len(turns))
	for i, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("history: failed to marshal turn: %w", err)
		}
		values[i] = data
	}

	key := conversationKey(phone)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -maxStored, -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: failed to persist turns: %w", err)
	}
	return nil
}

// Load returns the last limit turns, oldest first. An unknown phone has an empty history.
func (s *RedisStore) Load(ctx context.Context, phone string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return []models.Turn{}, nil
	}

	raw, err := s.redis.LRange(ctx, conversationKey(phone), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: failed to load turns: %w", err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var t models.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("history: failed to decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear drops the stored history of phone.
func (s *RedisStore) Clear(ctx context.Context, phone string) error {
	if err := s.redis.Del(ctx, conversationKey(phone)).Err(); err != nil {
		return fmt.Errorf("history: failed to clear history: %w", err)
	}
	return nil
}

func conversationKey(phone string) string {
	return fmt.Sprintf("conversation:%s", phone)
}
