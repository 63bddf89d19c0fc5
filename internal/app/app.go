// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package app builds the engine and its stores from configuration. The
// server, the batch CLI and the rebuild tool share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/eventprocessor"
	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/storage"
)

// Options adjusts Build.
type Options struct {
	// ForceSync runs cold-start rebuilds inside the request whatever the
	// configured mode, and skips the rebuild queue.
	ForceSync bool

	// InitSchema creates catalog tables even when catalog.init_schema is off.
	InitSchema bool
}

// Components are the wired collaborators of one engine.
type Components struct {
	Catalog    catalog.Store
	CatalogSQL *catalog.SQLStore
	Events     interactions.EventLog
	Artifacts  storage.Store
	Cache      cache.ResultCache

	// Queue and Router are set in async rebuild mode only.
	Queue  *eventprocessor.Queue
	Router *eventprocessor.Router

	Engine *recommend.Engine

	closers []closer
	logger  zerolog.Logger
}

type closer struct {
	name string
	fn   func() error
}

// Build opens every store named in cfg and creates the engine. It does not
// load a snapshot. On error everything already opened is closed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (_ *Components, err error) {
	c := &Components{logger: logger}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err = c.openCatalog(ctx, cfg.Catalog, opts.InitSchema); err != nil {
		return nil, err
	}
	if err = c.openEvents(ctx, cfg.Events, cfg.Catalog.Driver); err != nil {
		return nil, err
	}
	if err = c.openArtifacts(cfg.Artifacts); err != nil {
		return nil, err
	}
	if err = c.openCache(ctx, cfg.Cache); err != nil {
		return nil, err
	}

	engineCfg := cfg.Recommend.EngineConfig()
	if opts.ForceSync {
		engineCfg.RebuildMode = recommend.RebuildSync
	}

	deps := recommend.Deps{
		Catalog:   c.Catalog,
		Events:    c.Events,
		Artifacts: c.Artifacts,
		Cache:     c.Cache,
	}
	if engineCfg.RebuildMode == recommend.RebuildAsync {
		c.Queue = eventprocessor.NewQueue(cfg.Queue.Queue(), logging.NewWatermillAdapter(logger))
		c.add("rebuild queue", c.Queue.Close)
		deps.Scheduler = c.Queue
	}

	c.Engine, err = recommend.NewEngine(engineCfg, deps, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	if c.Queue != nil {
		routerCfg := cfg.Queue.Router()
		c.Router, err = eventprocessor.NewRouter(&routerCfg, logging.NewWatermillAdapter(logger))
		if err != nil {
			return nil, fmt.Errorf("create rebuild router: %w", err)
		}
		eventprocessor.NewRebuildHandler(c.Engine, logger).Register(c.Router, c.Queue)
	}

	logger.Info().
		Str("catalog", cfg.Catalog.Driver).
		Str("events", cfg.Events.Backend).
		Str("artifacts", cfg.Artifacts.Backend).
		Str("cache", cfg.Cache.Backend).
		Str("rebuild_mode", string(engineCfg.RebuildMode)).
		Msg("components ready")
	return c, nil
}

func (c *Components) add(name string, fn func() error) {
	c.closers = append(c.closers, closer{name: name, fn: fn})
}

func (c *Components) openCatalog(ctx context.Context, cfg config.CatalogConfig, forceSchema bool) error {
	sqlStore, err := catalog.OpenSQL(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}
	c.add("catalog", sqlStore.Close)
	c.CatalogSQL = sqlStore

	if cfg.InitSchema || forceSchema {
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	c.Catalog = sqlStore
	if cfg.Breaker.Enabled {
		c.Catalog = catalog.NewBreakerStore(sqlStore, cfg.Breaker.StoreConfig())
	}
	return nil
}

func (c *Components) openEvents(ctx context.Context, cfg config.EventsConfig, catalogDriver string) error {
	var (
		log interactions.EventLog
		err error
	)
	switch {
	case cfg.Backend == config.EventsCSV:
		log, err = interactions.OpenCSVLog(cfg.Path)
	case cfg.DSN == "" && cfg.Backend == catalogDriver:
		// Shares the catalog connection; closing the log leaves it open.
		log, err = interactions.NewSQLLog(ctx, c.CatalogSQL.DB(), cfg.Backend)
	default:
		log, err = interactions.OpenSQLLog(ctx, cfg.Backend, cfg.DSN)
	}
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	c.Events = log
	c.add("event log", log.Close)
	return nil
}

func (c *Components) openArtifacts(cfg config.ArtifactsConfig) error {
	switch cfg.Backend {
	case config.ArtifactsNone:
		return nil
	case config.ArtifactsBadger:
		s, err := storage.OpenBadgerStore(cfg.Path)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		c.Artifacts = s
		c.add("snapshot store", s.Close)
	default:
		s, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		c.Artifacts = s
		c.add("snapshot store", s.Close)
	}
	return nil
}

func (c *Components) openCache(ctx context.Context, cfg config.CacheConfig) error {
	switch cfg.Backend {
	case config.CacheNone:
	case cache.BackendRedis:
		rc, err := cache.OpenRedis(ctx, cfg.Redis, c.logger)
		if err != nil {
			return err
		}
		c.Cache = rc
		c.add("redis cache", rc.Close)
	default:
		c.Cache = cache.NewLRUCache(cfg.Capacity, cfg.TTL)
	}
	return nil
}

// Close releases everything Build opened, newest first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.fn(); err != nil {
			c.logger.Error().Err(err).Str("component", cl.name).Msg("close failed")
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
