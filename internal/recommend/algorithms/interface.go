// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"math"
	"sort"
)

// Sub-model names used in errors, readiness reports and metric labels.
const (
	ModelContent       = "content"
	ModelMatrix        = "interaction_matrix"
	ModelFactorization = "factorization"
	ModelSegmentation  = "segmentation"
	ModelPopularity    = "popularity"
)

// Index maps entity IDs to dense matrix positions. It is built once per
// cycle and never mutated afterwards.
type Index struct {
	ids []int
	pos map[int]int
}

// NewIndex builds an index over ids in the given order. Duplicate IDs keep
// their first position.
func NewIndex(ids []int) *Index {
	idx := &Index{
		ids: make([]int, 0, len(ids)),
		pos: make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		if _, dup := idx.pos[id]; dup {
			continue
		}
		idx.pos[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
	}
	return idx
}

// Pos returns the position of id.
func (x *Index) Pos(id int) (int, bool) {
	if x == nil {
		return 0, false
	}
	p, ok := x.pos[id]
	return p, ok
}

// ID returns the ID stored at position p.
func (x *Index) ID(p int) int {
	return x.ids[p]
}

// IDs returns a copy of the indexed IDs in position order.
func (x *Index) IDs() []int {
	out := make([]int, len(x.ids))
	copy(out, x.ids)
	return out
}

// Len returns the number of indexed IDs.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.ids)
}

// Scored pairs an entity ID with a score.
type Scored struct {
	ID    int
	Score float64
}

// sortScored orders by score descending, then ID ascending so equal scores
// rank deterministically.
func sortScored(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// dot returns the inner product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// newMatrix allocates a rows x cols matrix backed by a single slice.
func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
