// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRebuild(t *testing.T) {
	success := testutil.ToFloat64(RebuildsTotal.WithLabelValues("success"))
	failure := testutil.ToFloat64(RebuildsTotal.WithLabelValues("failure"))

	RecordRebuild(10*time.Millisecond, nil)
	RecordRebuild(20*time.Millisecond, errors.New("persist snapshot: disk full"))

	if got := testutil.ToFloat64(RebuildsTotal.WithLabelValues("success")) - success; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RebuildsTotal.WithLabelValues("failure")) - failure; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestSetSnapshot(t *testing.T) {
	SetSnapshot(7, 2, 3, 4)

	if got := testutil.ToFloat64(SnapshotVersion); got != 7 {
		t.Errorf("SnapshotVersion = %v, want 7", got)
	}
	tests := []struct {
		dim  string
		want float64
	}{
		{"users", 2},
		{"items", 3},
		{"nnz", 4},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(SnapshotShape.WithLabelValues(tt.dim)); got != tt.want {
			t.Errorf("SnapshotShape[%s] = %v, want %v", tt.dim, got, tt.want)
		}
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("memory"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("memory"))

	RecordCacheLookup("memory", true)
	RecordCacheLookup("memory", false)
	RecordCacheLookup("memory", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("memory")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("memory")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}
