package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session blob in a durable key-value entry. Useful
// when runs execute on throwaway workers (CI runners) where the local
// filesystem does not survive between runs.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisStore(client *redis.Client, account string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "session:" + account,
	}
}

func (rs *RedisStore) Load(ctx context.Context) (*State, bool) {
	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Failed to read session from redis: %v", err)
		}
		return nil, false
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("⚠️ Corrupt session entry, treating as absent: %v", err)
		return nil, false
	}
	if len(state.BrowserState) == 0 || state.CapturedAt.IsZero() {
		return nil, false
	}
	return &state, true
}

func (rs *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := rs.client.Set(ctx, rs.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write session to redis: %w", err)
	}
	return nil
}

func (rs *RedisStore) Invalidate(ctx context.Context) error {
	if err := rs.client.Del(ctx, rs.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
