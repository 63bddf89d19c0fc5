// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"math"
	"reflect"
	"testing"
)

func TestMinMaxScaler(t *testing.T) {
	scaler := FitMinMax([][]float64{
		{0, 10, 5},
		{2, 20, 5},
		{4, 15, 5},
	})

	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "minimum", in: []float64{0, 10, 5}, want: []float64{0, 0, 0}},
		{name: "maximum", in: []float64{4, 20, 5}, want: []float64{1, 1, 0}},
		{name: "midpoint", in: []float64{2, 15, 5}, want: []float64{0.5, 0.5, 0}},
		{name: "outside fitted range", in: []float64{8, 0, 9}, want: []float64{2, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaler.Transform(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transform(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFitMinMax_Empty(t *testing.T) {
	scaler := FitMinMax(nil)
	if got := scaler.Transform([]float64{1, 2}); !reflect.DeepEqual(got, []float64{0, 0}) {
		t.Errorf("Transform() = %v, want zeros", got)
	}
}

func TestNormalizeScores(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "empty", in: nil, want: []float64{}},
		{name: "single", in: []float64{0.37}, want: []float64{1}},
		{name: "all equal", in: []float64{2, 2, 2}, want: []float64{1, 1, 1}},
		{name: "range", in: []float64{4, 2, 3}, want: []float64{1, 0, 0.5}},
		{name: "negative", in: []float64{-1, 1}, want: []float64{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeScores(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeScores(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "scaled", a: []float64{1, 1}, b: []float64{3, 3}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 2}, b: []float64{-1, -2}, want: -1},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
