// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package index implements exact maximum inner-product search over a dense
// float32 matrix. Row i of the matrix is the vector of catalog position i.
//
// With unit-length rows and queries the inner product is cosine similarity.
// Search is a full scan with a bounded heap; there is no approximation.
package index

import (
	"container/heap"
	"errors"
	"fmt"
)

var (
	// ErrIndexEmpty is returned by Search before any vector has been added.
	ErrIndexEmpty = errors.New("index: no vectors indexed")

	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("index: dimension mismatch")
)

// Hit is one search result.
type Hit struct {
	Position int
	Score    float32
}

// Flat is an exact inner-product index. It is not safe for concurrent
// mutation; readers may search concurrently while nothing mutates.
type Flat struct {
	dim  int
	data []float32 // row-major, len == rows*dim
	rows int
}

// NewFlat returns an empty index. A zero dim is fixed by the first Add.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Len returns the number of indexed rows.
func (f *Flat) Len() int { return f.rows }

// Dimension returns the row length.
func (f *Flat) Dimension() int { return f.dim }

// Add appends rows in order.
func (f *Flat) Add(vectors ...[]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := f.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	f.dim = dim
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.rows += len(vectors)
	return nil
}

// Rebuild replaces the whole index with vectors. On error the index is unchanged.
func (f *Flat) Rebuild(vectors [][]float32) error {
	next := &Flat{dim: f.dim}
	if len(vectors) > 0 {
		next.dim = len(vectors[0])
		next.data = make([]float32, 0, len(vectors)*next.dim)
	}
	if err := next.Add(vectors...); err != nil {
		return err
	}
	*f = *next
	return nil
}

// Vector returns a copy of row pos.
func (f *Flat) Vector(pos int) ([]float32, bool) {
	if pos < 0 || pos >= f.rows {
		return nil, false
	}
	out := make([]float32, f.dim)
	copy(out, f.row(pos))
	return out, true
}

// Matrix returns a copy of all rows.
func (f *Flat) Matrix() [][]float32 {
	out := make([][]float32, f.rows)
	for i := range out {
		out[i] = make([]float32, f.dim)
		copy(out[i], f.row(i))
	}
	return out
}

func (f *Flat) row(pos int) []float32 {
	return f.data[pos*f.dim : (pos+1)*f.dim]
}

// Search returns at most k hits ordered by descending score, ties broken by
// ascending position. Positions in exclude never appear in the result. The
// scan keeps k+len(exclude) candidates so that excluded rows cannot starve
// the result.
func (f *Flat) Search(query []float32, k int, exclude map[int]struct{}) ([]Hit, error) {
	if f.rows == 0 {
		return nil, ErrIndexEmpty
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d values, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	n := k + len(exclude)
	if n > f.rows {
		n = f.rows
	}

	h := make(hitHeap, 0, n)
	for pos := 0; pos < f.rows; pos++ {
		hit := Hit{Position: pos, Score: dot(query, f.row(pos))}
		if len(h) < n {
			heap.Push(&h, hit)
			continue
		}
		if better(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	ranked := make([]Hit, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		ranked[i] = heap.Pop(&h).(Hit)
	}

	out := make([]Hit, 0, k)
	for _, hit := range ranked {
		if _, skip := exclude[hit.Position]; skip {
			continue
		}
		out = append(out, hit)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// better reports whether a ranks ahead of b.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Position < b.Position
}

// hitHeap is a min-heap with the worst-ranked hit at the root.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
