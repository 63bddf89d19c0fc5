// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/metrics"
)

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
}

// RedisCache shares cached results between server replicas. Values are
// JSON arrays stored with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// OpenRedis connects to cfg.Addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisCache(client, cfg.Prefix, cfg.TTL, logger), nil
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get implements ResultCache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		metrics.RecordCacheLookup(BackendRedis, false)
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed cache value")
		metrics.RecordCacheLookup(BackendRedis, false)
		return nil, false
	}
	metrics.RecordCacheLookup(BackendRedis, true)
	return ids, true
}

// Set implements ResultCache.
func (c *RedisCache) Set(ctx context.Context, key string, ids []string) {
	data, err := json.Marshal(ids)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("encode cache value")
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
