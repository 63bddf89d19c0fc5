// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package cache provides result caches for blended recommendations.
//
// Keys embed the snapshot version, so publishing a new snapshot makes
// every older entry unreachable without an explicit flush.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"
)

// Backend names used in metrics and configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ResultCache stores ordered track id lists. A backend failure is reported
// as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, ids []string)
}

type keyParams struct {
	User  string   `json:"u"`
	Seeds []string `json:"s"`
	N     int      `json:"n"`
}

// Key derives the cache key for a request against a snapshot version.
func Key(version int64, user string, seeds []string, n int) string {
	data, err := json.Marshal(keyParams{User: user, Seeds: seeds, N: n})
	if err != nil {
		return fmt.Sprintf("rec:v%d:%s:%v:%d", version, user, seeds, n)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("rec:v%d:%x", version, hash[:16])
}
