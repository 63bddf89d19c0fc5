// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package api exposes the recommendation engine over HTTP.

Routes are served by a chi router:

	POST /api/v1/recommendations          blended recommendations for a user and seed tracks
	GET  /api/v1/recommendations/status   snapshot and rebuild status
	POST /api/v1/recommendations/rebuild  refit the model (202 when queued)
	GET  /api/v1/tracks/search            catalog search by partial name
	GET  /health                          readiness
	GET  /health/live                     liveness
	GET  /metrics                         Prometheus exposition

Every JSON response uses the same envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
	{"status": "error", "error": {"code": "EMPTY_INPUT", "message": "..."}, "metadata": {...}}

Request bodies are validated with go-playground/validator through the
validation package; failures are reported as VALIDATION_ERROR with the
offending field in error.details.

Engine errors map to status codes by kind: empty input is 400, not found is
404, a failed rebuild is 500 and an open catalog circuit breaker is 503.
*/
package api
