package prompts

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding prompt name → text.
const DefaultRedisKey = "ossi:prompts"

// RedisSource reads prompts from a Redis hash.
type RedisSource struct {
	client *redis.Client
	key    string
}

// NewRedisSource connects to the Redis instance at url (redis://host:port/db).
func NewRedisSource(url, key string) (*RedisSource, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{client: redis.NewClient(opt), key: key}, nil
}

// Describe names the source for logs.
func (s *RedisSource) Describe() string {
	return "redis:" + s.key
}

// Load fetches every field of the prompt hash.
func (s *RedisSource) Load(ctx context.Context) (map[string]string, error) {
	out, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load prompts from redis: %w", err)
	}
	return out, nil
}

// Put stores a single prompt in the hash.
func (s *RedisSource) Put(ctx context.Context, name, text string) error {
	if err := s.client.HSet(ctx, s.key, name, text).Err(); err != nil {
		return fmt.Errorf("store prompt %s: %w", name, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
