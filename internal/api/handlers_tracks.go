// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cadence/internal/catalog"
)

// SearchRequest holds the query parameters of the track search.
type SearchRequest struct {
	Query string `json:"q" validate:"required,max=200"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

// SearchResponse is the data of a track search.
type SearchResponse struct {
	Tracks []catalog.TrackSummary `json:"tracks"`
	Count  int                    `json:"count"`
}

// SearchTracks handles GET /api/v1/tracks/search?q=&limit=.
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", catalog.DefaultSearchLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	req := SearchRequest{Query: r.URL.Query().Get("q"), Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	tracks, err := h.engine.SearchTracks(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if tracks == nil {
		tracks = []catalog.TrackSummary{}
	}
	respondSuccess(w, http.StatusOK, SearchResponse{Tracks: tracks, Count: len(tracks)}, start)
}
