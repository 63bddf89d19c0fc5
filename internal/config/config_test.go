// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"rate limit reqs", func(c *Config) { c.Server.RateLimitReqs = 0 }, "server.rate_limit_reqs"},
		{"rate limit disabled ignores reqs", func(c *Config) {
			c.Server.RateLimitDisabled = true
			c.Server.RateLimitReqs = 0
		}, ""},
		{"catalog driver", func(c *Config) { c.Catalog.Driver = "mysql" }, "catalog.driver"},
		{"catalog dsn", func(c *Config) { c.Catalog.DSN = "" }, "catalog.dsn"},
		{"breaker ratio", func(c *Config) { c.Catalog.Breaker.FailureRatio = 1.5 }, "failure_ratio"},
		{"breaker disabled ignores ratio", func(c *Config) {
			c.Catalog.Breaker.Enabled = false
			c.Catalog.Breaker.FailureRatio = 0
		}, ""},
		{"events backend", func(c *Config) { c.Events.Backend = "kafka" }, "events.backend"},
		{"events csv path", func(c *Config) { c.Events.Path = "" }, "events.path"},
		{"events shares catalog db", func(c *Config) { c.Events.Backend = "sqlite" }, ""},
		{"events other driver needs dsn", func(c *Config) { c.Events.Backend = "duckdb" }, "events.dsn"},
		{"artifacts backend", func(c *Config) { c.Artifacts.Backend = "s3" }, "artifacts.backend"},
		{"artifacts path", func(c *Config) { c.Artifacts.Path = "" }, "artifacts.path"},
		{"artifacts none", func(c *Config) {
			c.Artifacts.Backend = ArtifactsNone
			c.Artifacts.Path = ""
		}, ""},
		{"als factors", func(c *Config) { c.Recommend.ALS.Factors = 0 }, "als.factors must be positive, got 0"},
		{"weights", func(c *Config) {
			c.Recommend.ContentWeight = 0
			c.Recommend.CollabWeight = 0
		}, "content_weight"},
		{"rebuild mode", func(c *Config) { c.Recommend.Rebuild.Mode = "later" }, "rebuild_mode"},
		{"rebuild interval", func(c *Config) { c.Recommend.Rebuild.Interval = -time.Second }, "recommend.rebuild.interval"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"cache capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache.capacity"},
		{"redis addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		}, "cache.redis.addr"},
		{"async queue retries", func(c *Config) {
			c.Recommend.Rebuild.Mode = "async"
			c.Queue.RetryMaxRetries = -1
		}, "queue.retry_max_retries"},
		{"sync ignores queue", func(c *Config) { c.Queue.RetryMaxRetries = -1 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	bc := cfg.Catalog.Breaker.StoreConfig()
	if bc.Name != "catalog" || bc.MinRequests != 10 || bc.FailureRatio != 0.6 {
		t.Errorf("StoreConfig() = %+v", bc)
	}

	qc := cfg.Queue.Queue()
	if qc.Buffer != 64 || qc.Topic != "recommend.rebuild" {
		t.Errorf("Queue() = %+v", qc)
	}

	rc := cfg.Queue.Router()
	if rc.RetryMaxRetries != 3 || rc.RetryMultiplier != 2.0 || rc.CloseTimeout != 30*time.Second {
		t.Errorf("Router() = %+v", rc)
	}

	lc := cfg.Logging.Logging()
	if lc.Level != "info" || lc.Format != "json" || lc.Output == nil {
		t.Errorf("Logging() = %+v", lc)
	}
}
