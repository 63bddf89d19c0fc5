// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package recommend implements the hybrid track recommendation engine.
//
// # Architecture
//
// Two independent signals are fused per request:
//
//   - Content: cosine similarity of min-max scaled audio features to the
//     centroid of the seed tracks (algorithms.RankContent).
//   - Collaborative: implicit-feedback ALS trained on playlist/track
//     co-occurrence, queried once per seed (algorithms.ALSModel).
//
// Both lists are min-max normalized, outer-joined on track id and blended
// with configurable weights (0.3 content, 0.7 collaborative by default).
//
// # Request States
//
// Every request walks CONTENT_ONLY then COLLABORATIVE_ATTEMPTED and ends in
// BLENDED when the collaborative pool is non-empty. Otherwise the seeds are
// appended to the interaction log, a rebuild runs (or is queued), and the
// response is the content ranking: COLD_START_REBUILD then CONTENT_FALLBACK.
//
// # Snapshots
//
// The interaction matrix, its identifier maps and the model fit on it form
// one immutable Snapshot. Requests pin the current snapshot once; Rebuild
// is single-writer and publishes a new snapshot with one atomic pointer
// swap after it has been persisted. A failed rebuild leaves the previous
// snapshot in place.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), recommend.Deps{
//	    Catalog:   store,
//	    Events:    eventLog,
//	    Artifacts: snapshots,
//	}, logger)
//	if err := engine.Load(ctx); err != nil { ... }
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    UserID:       "playlist-42",
//	    SeedTrackIDs: []string{"spotify:track:4uLU6hMCjMI75M1A2tKUQC"},
//	    N:            10,
//	})
package recommend
