// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// RecommendRequest is the body of POST /api/v1/recommendations.
type RecommendRequest struct {
	UserID string   `json:"user_id" validate:"required,max=256"`
	Seeds  []string `json:"seeds" validate:"required,min=1,max=100,dive,trackid"`
	N      int      `json:"n" validate:"gte=0,lte=1000"`

	// IncludeSeeds echoes display metadata for the seed tracks.
	IncludeSeeds bool `json:"include_seeds,omitempty"`
}

// RecommendResponse is the data of a successful recommendation.
type RecommendResponse struct {
	TrackIDs        []string                `json:"track_ids"`
	Items           []recommend.ScoredTrack `json:"items,omitempty"`
	State           recommend.State         `json:"state"`
	Trace           []recommend.State       `json:"trace"`
	SnapshotVersion int64                   `json:"snapshot_version"`
	Skipped         []string                `json:"skipped,omitempty"`
	RebuildQueued   bool                    `json:"rebuild_queued,omitempty"`
	Seeds           []catalog.TrackSummary  `json:"seeds,omitempty"`
}

// RebuildResponse is the data of POST /api/v1/recommendations/rebuild.
type RebuildResponse struct {
	Queued bool              `json:"queued"`
	Status *recommend.Status `json:"status,omitempty"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidJSON, "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:       req.UserID,
		SeedTrackIDs: req.Seeds,
		N:            req.N,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	out := RecommendResponse{
		TrackIDs:        resp.TrackIDs,
		Items:           resp.Items,
		State:           resp.State,
		Trace:           resp.Trace,
		SnapshotVersion: resp.SnapshotVersion,
		Skipped:         resp.Skipped,
		RebuildQueued:   resp.RebuildQueued,
	}
	if out.TrackIDs == nil {
		out.TrackIDs = []string{}
	}
	if req.IncludeSeeds {
		seeds, err := h.engine.LookupTracks(r.Context(), req.Seeds)
		if err != nil {
			// The recommendation itself succeeded; seed display data is optional.
			logging.Ctx(r.Context()).Warn().Err(err).Msg("seed lookup failed")
		} else {
			out.Seeds = seeds
		}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   out,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      resp.CacheHit,
		},
	})
}

// RecommendStatus handles GET /api/v1/recommendations/status.
func (h *Handler) RecommendStatus(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondSuccess(w, http.StatusOK, h.engine.Status(), start)
}

// Rebuild handles POST /api/v1/recommendations/rebuild. With a scheduler
// the rebuild is queued and 202 is returned; otherwise it runs before the
// response is written.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.scheduler != nil {
		err := h.scheduler.ScheduleRebuild(r.Context(), recommend.RebuildRequest{
			Reason:      "manual",
			RequestedAt: h.now().UTC(),
		})
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, CodeQueueUnavailable, "Rebuild queue is unavailable", err)
			return
		}
		respondSuccess(w, http.StatusAccepted, RebuildResponse{Queued: true}, start)
		return
	}

	if err := h.engine.Rebuild(r.Context()); err != nil {
		respondEngineError(w, err)
		return
	}
	status := h.engine.Status()
	respondSuccess(w, http.StatusOK, RebuildResponse{Status: &status}, start)
}
