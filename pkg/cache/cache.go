// Package cache holds the optional read-through cache used for aggregate
// payloads (facets, statistics). Listing pages are never cached.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/nestify/discovery/pkg/config"
	"github.com/nestify/discovery/pkg/logger"
)

// Cache is implemented by Redis and Noop.
type Cache interface {
	// Remember returns the cached value for key into dest, or calls load,
	// stores its result and decodes it into dest.
	Remember(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error
	Invalidate(ctx context.Context, prefix string) error
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// New returns a Redis cache when REDIS_ADDR is configured, Noop otherwise.
func New(cfg config.RedisConfig) (Cache, func() error) {
	if cfg.Addr == "" {
		return Noop{}, func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	logger.WithField("addr", cfg.Addr).Info("Redis cache enabled")
	return NewRedis(client, cfg.TTL), client.Close
}

func (c *Redis) Remember(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	if val, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if err := json.Unmarshal(val, dest); err == nil {
			return nil
		}
		logger.WithField("key", key).Warnf("Discarding undecodable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		// A broken cache degrades to a direct load.
		logger.WithError(err).WithField("key", key).Warnf("Cache read failed")
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.WithError(err).WithField("key", key).Warnf("Cache write failed")
	}

	return json.Unmarshal(data, dest)
}

// Invalidate drops every key starting with prefix.
func (c *Redis) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Noop always loads.
type Noop struct{}

func (Noop) Remember(ctx context.Context, _ string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (Noop) Invalidate(context.Context, string) error {
	return nil
}
