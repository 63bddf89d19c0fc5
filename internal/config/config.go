// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/eventprocessor"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

// Backend names.
const (
	EventsCSV = "csv"

	ArtifactsFile   = "file"
	ArtifactsBadger = "badger"
	ArtifactsNone   = "none"

	CacheNone = "none"
)

// Config holds all application configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Events     EventsConfig     `koanf:"events"`
	Artifacts  ArtifactsConfig  `koanf:"artifacts"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Cache      CacheConfig      `koanf:"cache"`
	Queue      QueueConfig      `koanf:"queue"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig selects the feature store.
type CatalogConfig struct {
	// Driver is sqlite or duckdb.
	Driver string `koanf:"driver"`

	// DSN is passed to the driver unchanged, e.g. a file path.
	DSN string `koanf:"dsn"`

	// InitSchema creates the catalog tables at startup when missing.
	InitSchema bool `koanf:"init_schema"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the catalog circuit breaker.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// StoreConfig converts to the catalog breaker settings.
func (b BreakerConfig) StoreConfig() catalog.BreakerConfig {
	return catalog.BreakerConfig{
		Name:         "catalog",
		MaxRequests:  b.MaxRequests,
		Interval:     b.Interval,
		Timeout:      b.Timeout,
		MinRequests:  b.MinRequests,
		FailureRatio: b.FailureRatio,
	}
}

// EventsConfig selects the interaction event log.
type EventsConfig struct {
	// Backend is csv, sqlite or duckdb.
	Backend string `koanf:"backend"`

	// Path is the CSV file for the csv backend.
	Path string `koanf:"path"`

	// DSN is the database for sql backends. Empty reuses the catalog
	// connection when the drivers match.
	DSN string `koanf:"dsn"`
}

// ArtifactsConfig selects where snapshots are persisted.
type ArtifactsConfig struct {
	// Backend is file, badger or none.
	Backend string `koanf:"backend"`

	// Path is the directory for file and badger stores.
	Path string `koanf:"path"`
}

// RecommendConfig holds engine settings.
type RecommendConfig struct {
	ALS           ALSConfig     `koanf:"als"`
	ContentTopN   int           `koanf:"content_top_n"`
	CollabTopN    int           `koanf:"collab_top_n"`
	DefaultN      int           `koanf:"default_n"`
	MaxN          int           `koanf:"max_n"`
	ContentWeight float64       `koanf:"content_weight"`
	CollabWeight  float64       `koanf:"collab_weight"`
	Rebuild       RebuildConfig `koanf:"rebuild"`
}

// ALSConfig holds collaborative model hyperparameters.
type ALSConfig struct {
	Factors        int     `koanf:"factors"`
	Iterations     int     `koanf:"iterations"`
	Regularization float64 `koanf:"regularization"`
	Alpha          float64 `koanf:"alpha"`
	// Workers defaults to GOMAXPROCS when zero.
	Workers int    `koanf:"workers"`
	Seed    uint64 `koanf:"seed"`
}

// RebuildConfig controls when and where the model is refit.
type RebuildConfig struct {
	// Mode is sync (retrain inside the cold-start request) or async.
	Mode string `koanf:"mode"`

	Timeout      time.Duration `koanf:"timeout"`
	KeepVersions int           `koanf:"keep_versions"`

	// OnStartup forces a full rebuild when the server starts even if a
	// snapshot was loaded.
	OnStartup bool `koanf:"on_startup"`

	// Interval schedules periodic full rebuilds. Zero disables them.
	Interval time.Duration `koanf:"interval"`
}

// EngineConfig converts to the engine's configuration.
func (r RecommendConfig) EngineConfig() recommend.Config {
	return recommend.Config{
		ALS: algorithms.ALSConfig{
			Factors:        r.ALS.Factors,
			Iterations:     r.ALS.Iterations,
			Regularization: r.ALS.Regularization,
			Alpha:          r.ALS.Alpha,
			Workers:        r.ALS.Workers,
			Seed:           r.ALS.Seed,
		},
		ContentTopN:    r.ContentTopN,
		CollabTopN:     r.CollabTopN,
		DefaultN:       r.DefaultN,
		MaxN:           r.MaxN,
		ContentWeight:  r.ContentWeight,
		CollabWeight:   r.CollabWeight,
		RebuildMode:    recommend.RebuildMode(r.Rebuild.Mode),
		RebuildTimeout: r.Rebuild.Timeout,
		KeepVersions:   r.Rebuild.KeepVersions,
	}
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	// Backend is none, memory or redis.
	Backend  string            `koanf:"backend"`
	Capacity int               `koanf:"capacity"`
	TTL      time.Duration     `koanf:"ttl"`
	Redis    cache.RedisConfig `koanf:"redis"`
}

// QueueConfig holds async rebuild queue settings.
type QueueConfig struct {
	Buffer               int64         `koanf:"buffer"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`
}

// Queue converts to the queue settings.
func (q QueueConfig) Queue() eventprocessor.QueueConfig {
	return eventprocessor.QueueConfig{Buffer: q.Buffer, Topic: eventprocessor.TopicRebuild}
}

// Router converts to the router settings.
func (q QueueConfig) Router() eventprocessor.RouterConfig {
	return eventprocessor.RouterConfig{
		CloseTimeout:         q.CloseTimeout,
		RetryMaxRetries:      q.RetryMaxRetries,
		RetryInitialInterval: q.RetryInitialInterval,
		RetryMaxInterval:     q.RetryMaxInterval,
		RetryMultiplier:      q.RetryMultiplier,
	}
}

// SupervisorConfig holds the suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Logging converts to the logging package configuration. Output is left at
// its stderr default.
func (l LoggingConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}
