package config

import (
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisClientConfig creates redis.Options for the read-through cache from the environment.
func RedisClientConfig() *redis.Options {
	db := 0
	if parsed, err := strconv.Atoi(EnvOrDefault("LENDING_REDIS_DB", "0")); err == nil {
		db = parsed
	}

	return &redis.Options{
		Addr:     EnvOrDefault("LENDING_REDIS_ADDR", "localhost:6379"),
		Password: EnvOrDefault("LENDING_REDIS_PASSWORD", ""),
		DB:       db,
	}
}
