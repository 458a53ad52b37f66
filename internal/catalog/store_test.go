// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package catalog

import (
	"errors"
	"testing"

	"github.com/tomtom215/reelscope/internal/models"
)

func meta(id int, title string) models.Metadata {
	return models.Metadata{ID: id, Title: title, Genres: []string{"Drame"}}
}

func TestAppendAndLookup(t *testing.T) {
	t.Parallel()

	s := NewStore(0)
	pos, err := s.Append(10, []float32{1, 0}, meta(10, "A"))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if pos != 0 {
		t.Errorf("pos = %d, want 0", pos)
	}
	if _, err := s.Append(20, []float32{0, 1}, meta(20, "B")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if s.Len() != 2 || s.Dimension() != 2 {
		t.Errorf("Len=%d Dimension=%d", s.Len(), s.Dimension())
	}
	if p, ok := s.IndexOf(20); !ok || p != 1 {
		t.Errorf("IndexOf(20) = %d, %v", p, ok)
	}
	item, ok := s.Get(10)
	if !ok || item.Metadata.Title != "A" || item.Vector[0] != 1 {
		t.Errorf("Get(10) = %+v, %v", item, ok)
	}
	if _, ok := s.Get(99); ok {
		t.Error("Get(99) should miss")
	}
}

func TestAppendDuplicateLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	s := NewStore(2)
	if _, err := s.Append(1, []float32{1, 0}, meta(1, "A")); err != nil {
		t.Fatal(err)
	}

	_, err := s.Append(1, []float32{0, 1}, meta(1, "A2"))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	item, _ := s.Get(1)
	if item.Metadata.Title != "A" || item.Vector[0] != 1 {
		t.Error("original item was modified")
	}
}

func TestAppendDimensionMismatch(t *testing.T) {
	t.Parallel()

	s := NewStore(3)
	if _, err := s.Append(1, []float32{1, 0}, meta(1, "A")); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
	if s.Len() != 0 {
		t.Error("store should be empty")
	}
}

func TestAppendCopiesVector(t *testing.T) {
	t.Parallel()

	s := NewStore(0)
	v := []float32{1, 0}
	if _, err := s.Append(1, v, meta(1, "A")); err != nil {
		t.Fatal(err)
	}
	v[0] = 42
	got, _ := s.Vector(1)
	if got[0] != 1 {
		t.Error("store aliases caller's vector")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore(0)
	for i, id := range []int{5, 3, 9} {
		v := []float32{float32(i), 1}
		if _, err := s.Append(id, v, meta(id, "m")); err != nil {
			t.Fatal(err)
		}
	}

	snap := s.Snapshot()
	other := NewStore(0)
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	ids := other.IDs()
	want := []int{5, 3, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
		a, _ := s.At(i)
		b, _ := other.At(i)
		if a.Vector[0] != b.Vector[0] || a.Vector[1] != b.Vector[1] {
			t.Errorf("vector %d differs", i)
		}
	}
}

func TestRestoreRejectsInvalid(t *testing.T) {
	t.Parallel()

	md := map[int]models.Metadata{1: meta(1, "A"), 2: meta(2, "B")}

	tests := []struct {
		name string
		snap Snapshot
	}{
		{"length mismatch", Snapshot{IDs: []int{1, 2}, Vectors: [][]float32{{1}}, Metadata: md}},
		{"duplicate ids", Snapshot{IDs: []int{1, 1}, Vectors: [][]float32{{1}, {1}}, Metadata: md}},
		{"missing metadata", Snapshot{IDs: []int{1, 3}, Vectors: [][]float32{{1}, {1}}, Metadata: md}},
		{"ragged vectors", Snapshot{IDs: []int{1, 2}, Vectors: [][]float32{{1}, {1, 0}}, Metadata: md}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore(0)
			if _, err := s.Append(7, []float32{1}, meta(7, "keep")); err != nil {
				t.Fatal(err)
			}
			if err := s.Restore(tt.snap); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("err = %v, want ErrInvalidSnapshot", err)
			}
			if _, ok := s.Get(7); !ok || s.Len() != 1 {
				t.Error("failed restore modified the store")
			}
		})
	}
}

func TestBulkReplace(t *testing.T) {
	t.Parallel()

	s := NewStore(0)
	if _, err := s.Append(1, []float32{1, 0}, meta(1, "old")); err != nil {
		t.Fatal(err)
	}

	err := s.BulkReplace([]Item{
		{ID: 2, Vector: []float32{0, 1}, Metadata: meta(2, "B")},
		{ID: 3, Vector: []float32{1, 0}, Metadata: meta(3, "C")},
	})
	if err != nil {
		t.Fatalf("BulkReplace() error = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if _, ok := s.Get(1); ok {
		t.Error("old item survived BulkReplace")
	}

	err = s.BulkReplace([]Item{
		{ID: 4, Vector: []float32{1, 0}, Metadata: meta(4, "D")},
		{ID: 4, Vector: []float32{1, 0}, Metadata: meta(4, "D")},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
	if s.Len() != 2 {
		t.Error("failed BulkReplace modified the store")
	}
}
