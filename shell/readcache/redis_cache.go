package readcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNilRedisClient is returned when a nil Redis client is provided.
var ErrNilRedisClient = errors.New("redis client must not be nil")

// RedisCache adapts a Redis client to the Cache interface.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Cache backed by the given Redis client.
func NewRedisCache(client *redis.Client) (*RedisCache, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a cache entry; a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return value, true, nil
}

// Set stores a cache entry with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
