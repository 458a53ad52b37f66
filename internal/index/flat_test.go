// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package index

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestSearchEmpty(t *testing.T) {
	t.Parallel()

	f := NewFlat(2)
	if _, err := f.Search([]float32{1, 0}, 3, nil); !errors.Is(err, ErrIndexEmpty) {
		t.Errorf("err = %v, want ErrIndexEmpty", err)
	}
}

func TestSearchExcludesAndOrders(t *testing.T) {
	t.Parallel()

	f := NewFlat(0)
	if err := f.Add([]float32{1, 0}, []float32{0, 1}, []float32{0.6, 0.8}); err != nil {
		t.Fatal(err)
	}

	hits, err := f.Search([]float32{1, 0}, 2, map[int]struct{}{0: {}})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].Position != 2 || !approx(hits[0].Score, 0.6) {
		t.Errorf("hits[0] = %+v, want position 2 score 0.6", hits[0])
	}
	if hits[1].Position != 1 || !approx(hits[1].Score, 0) {
		t.Errorf("hits[1] = %+v, want position 1 score 0", hits[1])
	}
}

func TestSearchTieBreakByPosition(t *testing.T) {
	t.Parallel()

	f := NewFlat(2)
	if err := f.Add([]float32{0, 1}, []float32{1, 0}, []float32{1, 0}, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}

	hits, err := f.Search([]float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{1, 2, 3} {
		if hits[i].Position != want {
			t.Errorf("hits[%d].Position = %d, want %d", i, hits[i].Position, want)
		}
	}
}

func TestSearchBounds(t *testing.T) {
	t.Parallel()

	f := NewFlat(1)
	for i := 0; i < 10; i++ {
		if err := f.Add([]float32{float32(i) / 10}); err != nil {
			t.Fatal(err)
		}
	}

	exclude := map[int]struct{}{9: {}, 8: {}, 7: {}}
	for _, k := range []int{0, 1, 4, 7, 20} {
		hits, err := f.Search([]float32{1}, k, exclude)
		if err != nil {
			t.Fatal(err)
		}
		want := k
		if want > 7 {
			want = 7
		}
		if len(hits) != want {
			t.Errorf("k=%d: len(hits) = %d, want %d", k, len(hits), want)
		}
		for i, h := range hits {
			if _, bad := exclude[h.Position]; bad {
				t.Errorf("k=%d: excluded position %d returned", k, h.Position)
			}
			if i > 0 && hits[i-1].Score < h.Score {
				t.Errorf("k=%d: scores not descending", k)
			}
		}
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	t.Parallel()

	f := NewFlat(0)
	if err := f.Add([]float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Search([]float32{1, 0, 0}, 1, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
	if err := f.Add([]float32{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add err = %v, want ErrDimensionMismatch", err)
	}
	if f.Len() != 1 {
		t.Errorf("Len = %d after rejected Add", f.Len())
	}
}

func TestRebuildAndMatrix(t *testing.T) {
	t.Parallel()

	f := NewFlat(0)
	if err := f.Add([]float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := f.Rebuild([][]float32{{0, 0, 1}, {0, 1, 0}}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if f.Len() != 2 || f.Dimension() != 3 {
		t.Fatalf("Len=%d Dimension=%d", f.Len(), f.Dimension())
	}

	m := f.Matrix()
	m[0][2] = 9
	v, _ := f.Vector(0)
	if v[2] != 1 {
		t.Error("Matrix returned aliased rows")
	}

	if err := f.Rebuild([][]float32{{1}, {1, 2}}); err == nil {
		t.Error("ragged Rebuild should fail")
	}
	if f.Len() != 2 {
		t.Error("failed Rebuild modified the index")
	}
}
