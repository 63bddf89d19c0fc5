// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package interactions

import (
	"fmt"

	"github.com/goccy/go-json"
)

// IDMap is a bijection between external identifiers and dense indices
// [0, Len), assigned in first-seen order.
type IDMap struct {
	index map[string]int
	ids   []string
}

// NewIDMap returns an empty mapping.
func NewIDMap() *IDMap {
	return &IDMap{index: make(map[string]int)}
}

// IDMapFrom builds a mapping from ids in order. Duplicates keep their
// first index.
func IDMapFrom(ids ...string) *IDMap {
	m := NewIDMap()
	for _, id := range ids {
		m.Add(id)
	}
	return m
}

// Add returns the index of id, assigning the next index if id is new.
func (m *IDMap) Add(id string) int {
	if idx, ok := m.index[id]; ok {
		return idx
	}
	idx := len(m.ids)
	m.index[id] = idx
	m.ids = append(m.ids, id)
	return idx
}

// Index returns the dense index of id.
func (m *IDMap) Index(id string) (int, bool) {
	if m == nil {
		return 0, false
	}
	idx, ok := m.index[id]
	return idx, ok
}

// ID returns the external identifier at idx.
func (m *IDMap) ID(idx int) (string, bool) {
	if m == nil || idx < 0 || idx >= len(m.ids) {
		return "", false
	}
	return m.ids[idx], true
}

// Len returns the number of mapped identifiers.
func (m *IDMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// IDs returns the identifiers in index order.
func (m *IDMap) IDs() []string {
	out := make([]string, m.Len())
	if m != nil {
		copy(out, m.ids)
	}
	return out
}

// MarshalJSON encodes the mapping as {"<external id>": <index>}.
func (m *IDMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.index)
}

// UnmarshalJSON decodes {"<external id>": <index>} and rejects anything that
// is not a bijection onto [0, n).
func (m *IDMap) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode id map: %w", err)
	}
	ids := make([]string, len(raw))
	filled := make([]bool, len(raw))
	for id, idx := range raw {
		if idx < 0 || idx >= len(raw) {
			return fmt.Errorf("decode id map: index %d for %q out of range [0, %d)", idx, id, len(raw))
		}
		if filled[idx] {
			return fmt.Errorf("decode id map: index %d assigned twice", idx)
		}
		ids[idx] = id
		filled[idx] = true
	}
	m.index = raw
	m.ids = ids
	return nil
}

// GobEncode stores the mapping in its JSON form.
func (m *IDMap) GobEncode() ([]byte, error) {
	return m.MarshalJSON()
}

// GobDecode restores a mapping written by GobEncode.
func (m *IDMap) GobDecode(data []byte) error {
	return m.UnmarshalJSON(data)
}
