// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package config provides centralized configuration management for Cadence.

Configuration is loaded in three layers with Koanf v2, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path passed to Load, else CONFIG_PATH, else
    the first of DefaultConfigPaths that exists
 3. Environment variables, mapped explicitly (ALS_FACTORS becomes
    recommend.als.factors). Unknown variables are ignored.

# Configuration Structure

  - LoggingConfig: level, format and caller annotation
  - ServerConfig: HTTP listener, timeouts, CORS and rate limiting
  - CatalogConfig: feature store driver (sqlite or duckdb), DSN and breaker
  - EventsConfig: interaction log backend (csv, sqlite or duckdb)
  - ArtifactsConfig: snapshot store backend (file, badger or none)
  - RecommendConfig: ALS hyperparameters, fusion weights and rebuild policy
  - CacheConfig: result cache backend (none, memory or redis)
  - QueueConfig: async rebuild queue and router retry policy
  - SupervisorConfig: suture restart policy

# Usage

	cfg, err := config.Load("")
	if err != nil {
	    return err
	}
	engineCfg := cfg.Recommend.EngineConfig()

Config is immutable after Load and safe for concurrent reads.
*/
package config
