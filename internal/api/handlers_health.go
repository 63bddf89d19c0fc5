// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the data of GET /health.
type HealthStatus struct {
	Status          string  `json:"status"`
	SnapshotVersion int64   `json:"snapshot_version"`
	HasModel        bool    `json:"has_model"`
	Rebuilding      bool    `json:"rebuilding"`
	Uptime          float64 `json:"uptime_seconds"`
}

// Health reports readiness. The service is ready once a snapshot has been
// published, even one without a model: content-only answers still work.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	st := h.engine.Status()

	health := HealthStatus{
		Status:          "healthy",
		SnapshotVersion: st.SnapshotVersion,
		HasModel:        st.HasModel,
		Rebuilding:      st.Rebuilding,
		Uptime:          h.now().Sub(h.startTime).Seconds(),
	}
	code := http.StatusOK
	if st.SnapshotVersion == 0 {
		health.Status = "starting"
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, code, health, start)
}

// HealthLive reports liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}
