package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "device_token:"

// Redis caches issued device tokens with a TTL matching the token lifetime.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, tokenKeyPrefix+key).Result()

	if err != nil {
		// redis.Nil is a plain miss, anything else degrades to a miss too
		return "", false
	}

	return val, true
}

func (c *Redis) Set(ctx context.Context, key, val string) error {
	return c.rdb.Set(ctx, tokenKeyPrefix+key, val, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	err := c.rdb.Del(ctx, tokenKeyPrefix+key).Err()

	if errors.Is(err, redis.Nil) {
		return nil
	}

	return err
}
