// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cadence/config.yaml",
	"/etc/cadence/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8088,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Catalog: CatalogConfig{
			Driver:     catalog.DriverSQLite,
			DSN:        "/data/catalog.db",
			InitSchema: false,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Events: EventsConfig{
			Backend: EventsCSV,
			Path:    "/data/interactions.csv",
		},
		Artifacts: ArtifactsConfig{
			Backend: ArtifactsFile,
			Path:    "/data/snapshots",
		},
		Recommend: RecommendConfig{
			ALS: ALSConfig{
				Factors:        50,
				Iterations:     20,
				Regularization: 0.1,
				Alpha:          1.0,
				Workers:        0, // GOMAXPROCS
				Seed:           42,
			},
			ContentTopN:   50,
			CollabTopN:    50,
			DefaultN:      10,
			MaxN:          100,
			ContentWeight: 0.3,
			CollabWeight:  0.7,
			Rebuild: RebuildConfig{
				Mode:         "sync",
				Timeout:      10 * time.Minute,
				KeepVersions: 3,
				OnStartup:    false,
				Interval:     0,
			},
		},
		Cache: CacheConfig{
			Backend:  cache.BackendMemory,
			Capacity: 1024,
			TTL:      5 * time.Minute,
			Redis: cache.RedisConfig{
				Addr:   "127.0.0.1:6379",
				DB:     0,
				Prefix: "cadence:",
				TTL:    5 * time.Minute,
			},
		},
		Queue: QueueConfig{
			Buffer:               64,
			CloseTimeout:         30 * time.Second,
			RetryMaxRetries:      3,
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     30 * time.Second,
			RetryMultiplier:      2.0,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it. path overrides the file search when
// non-empty; a path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	} else {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// ALS_FACTORS -> recommend.als.factors
	// CACHE_BACKEND -> cache.backend
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_reqs":       "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"rate_limit_disabled":   "server.rate_limit_disabled",

	// Catalog
	"catalog_driver":                "catalog.driver",
	"catalog_dsn":                   "catalog.dsn",
	"catalog_init_schema":           "catalog.init_schema",
	"catalog_breaker_enabled":       "catalog.breaker.enabled",
	"catalog_breaker_max_requests":  "catalog.breaker.max_requests",
	"catalog_breaker_interval":      "catalog.breaker.interval",
	"catalog_breaker_timeout":       "catalog.breaker.timeout",
	"catalog_breaker_min_requests":  "catalog.breaker.min_requests",
	"catalog_breaker_failure_ratio": "catalog.breaker.failure_ratio",

	// Interaction log
	"events_backend": "events.backend",
	"events_path":    "events.path",
	"events_dsn":     "events.dsn",

	// Snapshots
	"artifacts_backend": "artifacts.backend",
	"artifacts_path":    "artifacts.path",

	// Collaborative model
	"als_factors":        "recommend.als.factors",
	"als_iterations":     "recommend.als.iterations",
	"als_regularization": "recommend.als.regularization",
	"als_alpha":          "recommend.als.alpha",
	"als_workers":        "recommend.als.workers",
	"als_seed":           "recommend.als.seed",

	// Fusion
	"recommend_content_top_n":  "recommend.content_top_n",
	"recommend_collab_top_n":   "recommend.collab_top_n",
	"recommend_default_n":      "recommend.default_n",
	"recommend_max_n":          "recommend.max_n",
	"recommend_content_weight": "recommend.content_weight",
	"recommend_collab_weight":  "recommend.collab_weight",

	// Rebuild policy
	"rebuild_mode":          "recommend.rebuild.mode",
	"rebuild_timeout":       "recommend.rebuild.timeout",
	"rebuild_keep_versions": "recommend.rebuild.keep_versions",
	"rebuild_on_startup":    "recommend.rebuild.on_startup",
	"rebuild_interval":      "recommend.rebuild.interval",

	// Result cache
	"cache_backend":  "cache.backend",
	"cache_capacity": "cache.capacity",
	"cache_ttl":      "cache.ttl",
	"redis_addr":     "cache.redis.addr",
	"redis_password": "cache.redis.password",
	"redis_db":       "cache.redis.db",
	"redis_prefix":   "cache.redis.prefix",
	"redis_ttl":      "cache.redis.ttl",

	// Rebuild queue
	"queue_buffer":                 "queue.buffer",
	"queue_close_timeout":          "queue.close_timeout",
	"queue_retry_max_retries":      "queue.retry_max_retries",
	"queue_retry_initial_interval": "queue.retry_initial_interval",
	"queue_retry_max_interval":     "queue.retry_max_interval",
	"queue_retry_multiplier":       "queue.retry_multiplier",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - ALS_FACTORS -> recommend.als.factors
//   - REBUILD_MODE -> recommend.rebuild.mode
//   - CATALOG_DSN -> catalog.dsn
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped variables are skipped so the environment cannot pollute config.
	return ""
}
