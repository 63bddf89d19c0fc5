// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package metrics holds the Prometheus collectors for Cadence.
//
// Collectors are registered with the default registry through promauto and
// exposed on /metrics by the API router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_recommend_requests_total",
			Help: "Recommendation requests by final fusion state",
		},
		[]string{"state"}, // BLENDED, CONTENT_FALLBACK, error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_recommend_duration_seconds",
			Help:    "Recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)

	SeedsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_seeds_skipped_total",
			Help: "Seed tracks skipped because the catalog or model did not know them",
		},
	)

	// Rebuild Metrics
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_rebuilds_total",
			Help: "Matrix rebuild and retrain runs by outcome",
		},
		[]string{"outcome"}, // success, failure
	)

	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_rebuild_duration_seconds",
			Help:    "Duration of a full rebuild (read log, build matrix, fit, persist)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_snapshot_version",
			Help: "Version of the published matrix/model snapshot",
		},
	)

	SnapshotShape = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cadence_snapshot_shape",
			Help: "Dimensions of the published interaction matrix",
		},
		[]string{"dimension"}, // users, items, nnz
	)

	EventsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_interaction_events_appended_total",
			Help: "Interaction events appended to the log",
		},
	)

	// Rebuild Queue Metrics
	RebuildMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_rebuild_queue_messages_total",
			Help: "Rebuild queue messages by outcome (published, processed, skipped, failed, malformed)",
		},
		[]string{"outcome"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_result_cache_hits_total",
			Help: "Result cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_result_cache_misses_total",
			Help: "Result cache misses",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRecommendation records one completed request.
func RecordRecommendation(state string, duration time.Duration) {
	RecommendRequests.WithLabelValues(state).Inc()
	RecommendDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordRebuild records a rebuild attempt.
func RecordRebuild(duration time.Duration, err error) {
	RebuildDuration.Observe(duration.Seconds())
	if err != nil {
		RebuildsTotal.WithLabelValues("failure").Inc()
		return
	}
	RebuildsTotal.WithLabelValues("success").Inc()
}

// SetSnapshot publishes the gauges for a newly swapped snapshot.
func SetSnapshot(version int64, users, items, nnz int) {
	SnapshotVersion.Set(float64(version))
	SnapshotShape.WithLabelValues("users").Set(float64(users))
	SnapshotShape.WithLabelValues("items").Set(float64(items))
	SnapshotShape.WithLabelValues("nnz").Set(float64(nnz))
}

// RecordCacheLookup records a result cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
		return
	}
	CacheMisses.WithLabelValues(backend).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
