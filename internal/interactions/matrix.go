// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package interactions

import (
	"sort"
)

// Matrix is a sparse binary matrix in compressed sparse row form. Rows are
// users, columns are items; every stored entry is 1. Column indices within
// a row are sorted ascending.
//
// Fields are exported for gob; treat a built Matrix as read-only.
type Matrix struct {
	Rows    int
	Cols    int
	IndPtr  []int
	Indices []int
}

// NewMatrix builds a matrix from per-row column sets. Duplicate columns in
// a row collapse to a single entry.
func NewMatrix(rows, cols int, rowCols [][]int) *Matrix {
	m := &Matrix{Rows: rows, Cols: cols, IndPtr: make([]int, rows+1)}
	for u := 0; u < rows; u++ {
		var cs []int
		if u < len(rowCols) {
			cs = append(cs, rowCols[u]...)
		}
		sort.Ints(cs)
		last := -1
		for _, c := range cs {
			if c == last {
				continue
			}
			m.Indices = append(m.Indices, c)
			last = c
		}
		m.IndPtr[u+1] = len(m.Indices)
	}
	return m
}

// Empty reports whether the matrix has no rows or no columns.
func (m *Matrix) Empty() bool {
	return m == nil || m.Rows == 0 || m.Cols == 0
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	if m == nil {
		return 0
	}
	return len(m.Indices)
}

// Row returns the column indices of row u. The slice aliases the matrix.
func (m *Matrix) Row(u int) []int {
	if m == nil || u < 0 || u >= m.Rows {
		return nil
	}
	return m.Indices[m.IndPtr[u]:m.IndPtr[u+1]]
}

// RowNNZ returns the number of entries in row u.
func (m *Matrix) RowNNZ(u int) int {
	return len(m.Row(u))
}

// Has reports whether entry (u, i) is set.
func (m *Matrix) Has(u, i int) bool {
	row := m.Row(u)
	j := sort.SearchInts(row, i)
	return j < len(row) && row[j] == i
}

// At returns 1 if (u, i) is set and 0 otherwise.
func (m *Matrix) At(u, i int) float64 {
	if m.Has(u, i) {
		return 1
	}
	return 0
}

// Transpose returns the item-major view of the matrix.
func (m *Matrix) Transpose() *Matrix {
	if m == nil {
		return nil
	}
	counts := make([]int, m.Cols+1)
	for _, c := range m.Indices {
		counts[c+1]++
	}
	for i := 1; i <= m.Cols; i++ {
		counts[i] += counts[i-1]
	}
	t := &Matrix{Rows: m.Cols, Cols: m.Rows, IndPtr: append([]int(nil), counts...), Indices: make([]int, len(m.Indices))}
	next := counts[:m.Cols]
	for u := 0; u < m.Rows; u++ {
		for _, c := range m.Row(u) {
			t.Indices[next[c]] = u
			next[c]++
		}
	}
	return t
}

// Build turns an event log into a binary matrix plus user and item
// mappings. Indices follow first-seen order; duplicate pairs collapse to a
// single 1. An empty log yields a 0x0 matrix, which callers treat as "no
// collaborative signal".
func Build(events []Event) (*Matrix, *IDMap, *IDMap) {
	users := NewIDMap()
	items := NewIDMap()
	var rowCols [][]int

	for _, e := range events {
		e = e.Normalize()
		if !e.Valid() {
			continue
		}
		u := users.Add(e.UserID)
		i := items.Add(e.TrackID)
		if u == len(rowCols) {
			rowCols = append(rowCols, nil)
		}
		rowCols[u] = append(rowCols[u], i)
	}

	return NewMatrix(users.Len(), items.Len(), rowCols), users, items
}
