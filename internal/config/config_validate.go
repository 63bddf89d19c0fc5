// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
)

// Validate checks that required configuration is present and valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateQueue()
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Driver {
	case catalog.DriverSQLite, catalog.DriverDuckDB:
	default:
		return fmt.Errorf("catalog.driver must be %s or %s, got %q", catalog.DriverSQLite, catalog.DriverDuckDB, c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}
	b := c.Catalog.Breaker
	if b.Enabled && (b.FailureRatio <= 0 || b.FailureRatio > 1) {
		return fmt.Errorf("catalog.breaker.failure_ratio must be in (0, 1], got %v", b.FailureRatio)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsCSV:
		if c.Events.Path == "" {
			return fmt.Errorf("events.path is required for the csv backend")
		}
	case catalog.DriverSQLite, catalog.DriverDuckDB:
		if c.Events.DSN == "" && c.Events.Backend != c.Catalog.Driver {
			return fmt.Errorf("events.dsn is required when events.backend (%s) differs from catalog.driver (%s)", c.Events.Backend, c.Catalog.Driver)
		}
	default:
		return fmt.Errorf("events.backend must be csv, sqlite or duckdb, got %q", c.Events.Backend)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case ArtifactsNone:
	case ArtifactsFile, ArtifactsBadger:
		if c.Artifacts.Path == "" {
			return fmt.Errorf("artifacts.path is required for the %s backend", c.Artifacts.Backend)
		}
	default:
		return fmt.Errorf("artifacts.backend must be file, badger or none, got %q", c.Artifacts.Backend)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.Rebuild.Interval < 0 {
		return fmt.Errorf("recommend.rebuild.interval must not be negative, got %v", r.Rebuild.Interval)
	}
	if err := r.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheNone:
	case cache.BackendMemory:
		if c.Cache.Capacity <= 0 {
			return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
		}
	case cache.BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be none, memory or redis, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Recommend.Rebuild.Mode != "async" {
		return nil
	}
	if c.Queue.RetryMaxRetries < 0 {
		return fmt.Errorf("queue.retry_max_retries must not be negative, got %d", c.Queue.RetryMaxRetries)
	}
	if c.Queue.Buffer < 0 {
		return fmt.Errorf("queue.buffer must not be negative, got %d", c.Queue.Buffer)
	}
	return nil
}
