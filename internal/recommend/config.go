// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

// RebuildMode selects where a cold-start rebuild runs.
type RebuildMode string

const (
	// RebuildSync retrains inside the triggering request.
	RebuildSync RebuildMode = "sync"

	// RebuildAsync hands the retrain to a RebuildScheduler and answers
	// immediately.
	RebuildAsync RebuildMode = "async"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// ALS contains collaborative model hyperparameters.
	ALS algorithms.ALSConfig `json:"als"`

	// ContentTopN is the width of the content ranking fed into the blend.
	ContentTopN int `json:"content_top_n"`

	// CollabTopN is the number of collaborative candidates per seed.
	CollabTopN int `json:"collab_top_n"`

	// DefaultN is used when a request asks for N <= 0.
	DefaultN int `json:"default_n"`

	// MaxN caps N.
	MaxN int `json:"max_n"`

	// ContentWeight and CollabWeight scale the normalized scores. They need
	// not sum to 1.
	ContentWeight float64 `json:"content_weight"`
	CollabWeight  float64 `json:"collab_weight"`

	// RebuildMode is sync or async.
	RebuildMode RebuildMode `json:"rebuild_mode"`

	// RebuildTimeout bounds one rebuild. Zero means no limit.
	RebuildTimeout time.Duration `json:"rebuild_timeout"`

	// KeepVersions is how many persisted snapshots survive a prune.
	KeepVersions int `json:"keep_versions"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ALS:            algorithms.DefaultALSConfig(),
		ContentTopN:    50,
		CollabTopN:     50,
		DefaultN:       10,
		MaxN:           100,
		ContentWeight:  0.3,
		CollabWeight:   0.7,
		RebuildMode:    RebuildSync,
		RebuildTimeout: 10 * time.Minute,
		KeepVersions:   3,
	}
}

// Validate checks the configuration.
//
//nolint:gocritic // value receiver keeps Config immutable for callers
func (c Config) Validate() error {
	if err := c.ALS.Validate(); err != nil {
		return err
	}
	if c.ContentTopN <= 0 {
		return fmt.Errorf("content_top_n must be positive, got %d", c.ContentTopN)
	}
	if c.CollabTopN <= 0 {
		return fmt.Errorf("collab_top_n must be positive, got %d", c.CollabTopN)
	}
	if c.DefaultN <= 0 {
		return fmt.Errorf("default_n must be positive, got %d", c.DefaultN)
	}
	if c.MaxN < c.DefaultN {
		return fmt.Errorf("max_n (%d) must be >= default_n (%d)", c.MaxN, c.DefaultN)
	}
	if c.ContentWeight < 0 || c.CollabWeight < 0 {
		return fmt.Errorf("weights must be non-negative, got content=%f collab=%f", c.ContentWeight, c.CollabWeight)
	}
	if c.ContentWeight == 0 && c.CollabWeight == 0 {
		return fmt.Errorf("at least one of content_weight and collab_weight must be positive")
	}
	switch c.RebuildMode {
	case RebuildSync, RebuildAsync:
	default:
		return fmt.Errorf("rebuild_mode must be %q or %q, got %q", RebuildSync, RebuildAsync, c.RebuildMode)
	}
	if c.RebuildTimeout < 0 {
		return fmt.Errorf("rebuild_timeout must be non-negative, got %s", c.RebuildTimeout)
	}
	if c.KeepVersions < 1 {
		return fmt.Errorf("keep_versions must be at least 1, got %d", c.KeepVersions)
	}
	return nil
}
