// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/storage"
)

// Deps are the collaborators an Engine reads from and writes to.
type Deps struct {
	// Catalog supplies track features and metadata. Required.
	Catalog catalog.Store

	// Events is the append-only interaction log. Required.
	Events interactions.EventLog

	// Artifacts persists snapshots. Nil keeps snapshots in memory only.
	Artifacts storage.Store

	// Scheduler receives cold-start rebuilds in async mode.
	Scheduler RebuildScheduler

	// Cache stores blended results. Optional.
	Cache cache.ResultCache
}

// Engine answers recommendation requests against the current snapshot and
// owns the single-writer rebuild. It is safe for concurrent use.
type Engine struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger

	snapshot atomic.Pointer[Snapshot]

	// rebuildMu serializes rebuilds; readers never take it.
	rebuildMu  sync.Mutex
	rebuilding atomic.Bool

	statusMu            sync.RWMutex
	lastRebuildStart    time.Time
	lastRebuildAt       time.Time
	lastRebuildDuration time.Duration
	lastRebuildErr      error

	rebuildsOK     atomic.Int64
	rebuildsFailed atomic.Int64

	now func() time.Time
}

// NewEngine creates an engine publishing an empty snapshot. Call Load to
// publish persisted state.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, deps Deps, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if deps.Events == nil {
		return nil, errors.New("event log is required")
	}
	if cfg.RebuildMode == RebuildAsync && deps.Scheduler == nil {
		return nil, errors.New("async rebuild mode requires a scheduler")
	}

	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}
	e.snapshot.Store(emptySnapshot())
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot returns the published snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Load publishes the latest persisted snapshot. When none is stored (or no
// artifact store is configured) it rebuilds from the event log.
func (e *Engine) Load(ctx context.Context) error {
	if e.deps.Artifacts == nil {
		return e.Rebuild(ctx)
	}

	b, err := e.deps.Artifacts.LoadLatest(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		e.logger.Info().Msg("no persisted snapshot, rebuilding from event log")
		return e.Rebuild(ctx)
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.publish(snapshotFromBundle(b))
	e.logger.Info().
		Int64("version", b.Version).
		Int("users", b.Matrix.Rows).
		Int("items", b.Matrix.Cols).
		Msg("loaded persisted snapshot")
	return nil
}

func (e *Engine) publish(s *Snapshot) {
	e.snapshot.Store(s)
	metrics.SetSnapshot(s.Version, s.Matrix.Rows, s.Matrix.Cols, s.Matrix.NNZ())
}

// Recommend answers one request. Content-only fallbacks are successful
// responses; errors are *Error values (or catalog/context failures).
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.now()

	user := strings.TrimSpace(req.UserID)
	if user == "" {
		return nil, newError(KindEmptyInput, "recommend", "", errors.New("user id is required"))
	}
	seeds := catalog.NormalizeTrackIDs(req.SeedTrackIDs)
	if len(seeds) == 0 {
		return nil, newError(KindEmptyInput, "recommend", user, errors.New("at least one seed track is required"))
	}
	n := req.N
	if n <= 0 {
		n = e.cfg.DefaultN
	}
	if n > e.cfg.MaxN {
		n = e.cfg.MaxN
	}

	snap := e.snapshot.Load()
	logger := e.logger.With().
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Str("user_id", user).
		Int("seeds", len(seeds)).
		Int64("snapshot", snap.Version).
		Logger()

	var cacheKey string
	if e.deps.Cache != nil && snap.HasSignal() {
		cacheKey = cache.Key(snap.Version, user, seeds, n)
		if ids, ok := e.deps.Cache.Get(ctx, cacheKey); ok {
			metrics.RecordRecommendation(string(StateBlended), e.now().Sub(start))
			return &Response{
				TrackIDs:        ids,
				State:           StateBlended,
				Trace:           []State{StateBlended},
				SnapshotVersion: snap.Version,
				CacheHit:        true,
			}, nil
		}
	}

	var (
		content algorithms.ContentRanking
		collab  collabResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tracks, err := e.deps.Catalog.AllTracks(gctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		content, err = algorithms.RankContent(seeds, tracks, e.cfg.ContentTopN)
		if errors.Is(err, algorithms.ErrEmptySeeds) {
			return newError(KindEmptyInput, "recommend", user, err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		collab, err = snap.collaborate(user, seeds, e.cfg.CollabTopN)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range content.Missing {
		logger.Warn().Str("track_id", id).Msg("seed track not in catalog, skipped")
	}
	metrics.SeedsSkipped.Add(float64(len(content.Missing)))

	resp := &Response{
		Trace:           []State{StateContentOnly, StateCollaborativeAttempted},
		SnapshotVersion: snap.Version,
		Skipped:         content.Missing,
	}
	exclude := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		exclude[s] = struct{}{}
	}

	if len(collab.Pool) > 0 {
		resp.Items = Blend(content.Ranked, collab.Pool,
			Weights{Content: e.cfg.ContentWeight, Collab: e.cfg.CollabWeight}, exclude, n)
		resp.TrackIDs = trackIDs(resp.Items)
		resp.State = StateBlended
		resp.Trace = append(resp.Trace, StateBlended)

		if cacheKey != "" {
			e.deps.Cache.Set(ctx, cacheKey, resp.TrackIDs)
		}
		logger.Debug().
			Int("content", len(content.Ranked)).
			Int("collab", len(collab.Pool)).
			Int("returned", len(resp.Items)).
			Msg("blended recommendation")
		metrics.RecordRecommendation(string(resp.State), e.now().Sub(start))
		return resp, nil
	}

	logger.Info().
		Bool("unknown_user", collab.UnknownUser).
		Strs("unknown_seeds", collab.Unknown).
		Msg("no collaborative signal, cold start")
	resp.Trace = append(resp.Trace, StateColdStartRebuild)

	queued, err := e.coldStart(ctx, user, seeds)
	if err != nil {
		logger.Error().Err(err).Msg("cold start rebuild failed")
		return nil, err
	}

	resp.Items = contentOnly(content.Ranked, exclude, n)
	resp.TrackIDs = trackIDs(resp.Items)
	resp.State = StateContentFallback
	resp.Trace = append(resp.Trace, StateContentFallback)
	resp.RebuildQueued = queued
	metrics.RecordRecommendation(string(resp.State), e.now().Sub(start))
	return resp, nil
}

// coldStart records the seeds as the user's interactions and rebuilds, or
// queues a rebuild in async mode.
func (e *Engine) coldStart(ctx context.Context, user string, seeds []string) (queued bool, err error) {
	events := interactions.EventsFor(user, seeds)
	if err := e.deps.Events.Append(ctx, events...); err != nil {
		return false, newError(KindRebuildFailure, "append interactions", user, err)
	}
	metrics.EventsAppended.Add(float64(len(events)))

	if e.cfg.RebuildMode == RebuildAsync {
		req := RebuildRequest{
			UserID:      user,
			Seeds:       seeds,
			Reason:      "cold_start",
			RequestedAt: e.now(),
		}
		if err := e.deps.Scheduler.ScheduleRebuild(ctx, req); err != nil {
			return false, newError(KindRebuildFailure, "schedule rebuild", user, err)
		}
		return true, nil
	}

	return false, e.Rebuild(ctx)
}

// Rebuild reads the whole event log, rebuilds the matrix and identifier
// maps, refits the model, persists the bundle and publishes it. Only one
// rebuild runs at a time. On failure the published snapshot and the
// persisted latest version are unchanged and the error has
// KindRebuildFailure.
func (e *Engine) Rebuild(ctx context.Context) error {
	_, err := e.rebuildIfOlder(ctx, time.Time{})
	return err
}

// RebuildSince rebuilds unless a rebuild that started at or after since has
// already succeeded, in which case that snapshot already reflects every
// event appended before since. It reports whether a rebuild ran.
func (e *Engine) RebuildSince(ctx context.Context, since time.Time) (bool, error) {
	return e.rebuildIfOlder(ctx, since)
}

func (e *Engine) rebuildIfOlder(ctx context.Context, since time.Time) (bool, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	if !since.IsZero() {
		e.statusMu.RLock()
		fresh := !e.lastRebuildStart.Before(since) && e.lastRebuildErr == nil && !e.lastRebuildAt.IsZero()
		e.statusMu.RUnlock()
		if fresh {
			e.logger.Debug().Time("since", since).Msg("snapshot already covers request, skipping rebuild")
			return false, nil
		}
	}

	e.rebuilding.Store(true)
	defer e.rebuilding.Store(false)

	if e.cfg.RebuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RebuildTimeout)
		defer cancel()
	}

	start := e.now()
	snap, err := e.buildSnapshot(ctx, start)
	duration := e.now().Sub(start)
	metrics.RecordRebuild(duration, err)

	e.statusMu.Lock()
	e.lastRebuildAt = e.now()
	e.lastRebuildDuration = duration
	e.lastRebuildErr = err
	if err == nil {
		e.lastRebuildStart = start
	}
	e.statusMu.Unlock()

	if err != nil {
		e.rebuildsFailed.Add(1)
		e.logger.Error().Err(err).Dur("duration", duration).Msg("rebuild failed, keeping previous snapshot")
		return true, newError(KindRebuildFailure, "rebuild", "", err)
	}

	e.publish(snap)
	e.rebuildsOK.Add(1)
	e.logger.Info().
		Int64("version", snap.Version).
		Int("users", snap.Matrix.Rows).
		Int("items", snap.Matrix.Cols).
		Int("nnz", snap.Matrix.NNZ()).
		Dur("duration", duration).
		Msg("published snapshot")
	return true, nil
}

// buildSnapshot produces and persists the next snapshot without publishing
// it.
func (e *Engine) buildSnapshot(ctx context.Context, builtAt time.Time) (*Snapshot, error) {
	events, err := e.deps.Events.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}

	m, users, items := interactions.Build(events)

	var model *algorithms.ALSModel
	if !m.Empty() {
		model, err = algorithms.Fit(ctx, m, e.cfg.ALS)
		if err != nil {
			return nil, fmt.Errorf("fit model: %w", err)
		}
	}

	version, err := e.nextVersion(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Version: version,
		Matrix:  m,
		Users:   users,
		Items:   items,
		Model:   model,
		BuiltAt: builtAt,
	}

	if e.deps.Artifacts != nil {
		if _, err := e.deps.Artifacts.Save(ctx, snap.bundle()); err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
		if removed, err := e.deps.Artifacts.Prune(ctx, e.cfg.KeepVersions); err != nil {
			e.logger.Warn().Err(err).Msg("prune old snapshots")
		} else if removed > 0 {
			e.logger.Debug().Int("removed", removed).Msg("pruned old snapshots")
		}
	}
	return snap, nil
}

// nextVersion is one past the highest of the published and persisted
// versions.
func (e *Engine) nextVersion(ctx context.Context) (int64, error) {
	latest := e.snapshot.Load().Version
	if e.deps.Artifacts != nil {
		metas, err := e.deps.Artifacts.Versions(ctx)
		if err != nil {
			return 0, fmt.Errorf("list snapshots: %w", err)
		}
		for _, m := range metas {
			if m.Version > latest {
				latest = m.Version
			}
		}
	}
	return latest + 1, nil
}

// Status reports the published snapshot and rebuild history.
func (e *Engine) Status() Status {
	snap := e.snapshot.Load()
	st := Status{
		SnapshotVersion:   snap.Version,
		BuiltAt:           snap.BuiltAt,
		Users:             snap.Matrix.Rows,
		Items:             snap.Matrix.Cols,
		NNZ:               snap.Matrix.NNZ(),
		HasModel:          snap.Model != nil,
		Rebuilding:        e.rebuilding.Load(),
		RebuildMode:       e.cfg.RebuildMode,
		RebuildsSucceeded: e.rebuildsOK.Load(),
		RebuildsFailed:    e.rebuildsFailed.Load(),
	}
	if snap.Model != nil {
		st.Factors = snap.Model.Factors
	}

	e.statusMu.RLock()
	st.LastRebuildAt = e.lastRebuildAt
	st.LastRebuildDuration = e.lastRebuildDuration
	if e.lastRebuildErr != nil {
		st.LastRebuildError = e.lastRebuildErr.Error()
	}
	e.statusMu.RUnlock()

	return st
}

// SearchTracks finds catalog tracks by partial name.
func (e *Engine) SearchTracks(ctx context.Context, query string, limit int) ([]catalog.TrackSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(KindEmptyInput, "search", "", errors.New("query is required"))
	}
	if limit <= 0 {
		limit = catalog.DefaultSearchLimit
	}
	return e.deps.Catalog.SearchByName(ctx, query, limit)
}

// LookupTracks returns display metadata for the given ids; unknown ids are
// omitted.
func (e *Engine) LookupTracks(ctx context.Context, ids []string) ([]catalog.TrackSummary, error) {
	tracks, err := e.deps.Catalog.TracksByID(ctx, catalog.NormalizeTrackIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make([]catalog.TrackSummary, len(tracks))
	for i := range tracks {
		out[i] = tracks[i].Summary()
	}
	return out, nil
}
