package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values by key.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient parses a redis URL ("redis://host:6379/0") or a bare host:port.
func NewRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "cache get")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, errors.Wrap(err, "cache decode")
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "cache encode")
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "cache set")
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, "cache delete")
	}
	return nil
}

type nopCache struct{}

// Nop never hits.
func Nop() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (nopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, ...string) error               { return nil }
