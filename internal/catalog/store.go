// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package catalog holds the in-memory movie catalog: the ordered id list,
// one unit-length embedding per id, and the metadata for each id.
//
// Position i of the id list and position i of the vector list always refer
// to the same movie, and every id has metadata. Items are only ever added;
// there is no update or delete path. A Store is not safe for concurrent
// mutation on its own: the recommendation engine serializes writers.
package catalog

import (
	"errors"
	"fmt"

	"github.com/tomtom215/reelscope/internal/models"
)

var (
	// ErrDuplicateID is returned when appending an id that is already cataloged.
	ErrDuplicateID = errors.New("catalog: duplicate movie id")

	// ErrDimensionMismatch is returned when a vector's length differs from the catalog dimension.
	ErrDimensionMismatch = errors.New("catalog: vector dimension mismatch")

	// ErrInvalidSnapshot is returned by Restore and BulkReplace when the data
	// would break id/vector/metadata alignment.
	ErrInvalidSnapshot = errors.New("catalog: invalid snapshot")
)

// Item is one catalog entry.
type Item struct {
	ID       int
	Vector   []float32
	Metadata models.Metadata
}

// Snapshot is a detached copy of the catalog contents.
type Snapshot struct {
	IDs      []int
	Vectors  [][]float32
	Metadata map[int]models.Metadata
}

// Store is the EmbeddingStore.
type Store struct {
	ids      []int
	vectors  [][]float32
	metadata map[int]models.Metadata
	position map[int]int
	dim      int
}

// NewStore returns an empty store. dim may be 0, in which case the first
// appended vector fixes it.
func NewStore(dim int) *Store {
	return &Store{
		metadata: make(map[int]models.Metadata),
		position: make(map[int]int),
		dim:      dim,
	}
}

// Len returns the number of cataloged movies.
func (s *Store) Len() int { return len(s.ids) }

// Dimension returns the embedding dimension, or 0 if not yet known.
func (s *Store) Dimension() int { return s.dim }

// Get returns the item for id.
func (s *Store) Get(id int) (Item, bool) {
	pos, ok := s.position[id]
	if !ok {
		return Item{}, false
	}
	return Item{ID: id, Vector: s.vectors[pos], Metadata: s.metadata[id]}, true
}

// IndexOf returns the position of id.
func (s *Store) IndexOf(id int) (int, bool) {
	pos, ok := s.position[id]
	return pos, ok
}

// At returns the item stored at position pos.
func (s *Store) At(pos int) (Item, bool) {
	if pos < 0 || pos >= len(s.ids) {
		return Item{}, false
	}
	id := s.ids[pos]
	return Item{ID: id, Vector: s.vectors[pos], Metadata: s.metadata[id]}, true
}

// Vector returns the embedding for id. It satisfies profile.VectorLookup.
func (s *Store) Vector(id int) ([]float32, bool) {
	pos, ok := s.position[id]
	if !ok {
		return nil, false
	}
	return s.vectors[pos], true
}

// Metadata returns the metadata for id.
func (s *Store) Metadata(id int) (models.Metadata, bool) {
	m, ok := s.metadata[id]
	return m, ok
}

// Append adds one movie and returns its position. Ids, vectors and metadata
// extend together or not at all.
//
//nolint:gocritic // metadata is copied into the store
func (s *Store) Append(id int, vector []float32, meta models.Metadata) (int, error) {
	if _, exists := s.position[id]; exists {
		return -1, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if len(vector) == 0 {
		return -1, fmt.Errorf("%w: empty vector for %d", ErrDimensionMismatch, id)
	}
	if s.dim != 0 && len(vector) != s.dim {
		return -1, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), s.dim)
	}

	if s.dim == 0 {
		s.dim = len(vector)
	}
	meta.ID = id
	pos := len(s.ids)
	s.ids = append(s.ids, id)
	s.vectors = append(s.vectors, cloneVector(vector))
	s.metadata[id] = meta
	s.position[id] = pos
	return pos, nil
}

// BulkReplace discards the current contents and installs items in order.
// On error the store is left unchanged.
func (s *Store) BulkReplace(items []Item) error {
	snap := Snapshot{
		IDs:      make([]int, len(items)),
		Vectors:  make([][]float32, len(items)),
		Metadata: make(map[int]models.Metadata, len(items)),
	}
	for i := range items {
		snap.IDs[i] = items[i].ID
		snap.Vectors[i] = items[i].Vector
		if _, dup := snap.Metadata[items[i].ID]; dup {
			return fmt.Errorf("%w: %w: %d", ErrInvalidSnapshot, ErrDuplicateID, items[i].ID)
		}
		snap.Metadata[items[i].ID] = items[i].Metadata
	}
	return s.Restore(snap)
}

// Snapshot returns a deep copy of the store contents.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		IDs:      make([]int, len(s.ids)),
		Vectors:  make([][]float32, len(s.vectors)),
		Metadata: make(map[int]models.Metadata, len(s.metadata)),
	}
	copy(snap.IDs, s.ids)
	for i, v := range s.vectors {
		snap.Vectors[i] = cloneVector(v)
	}
	for id, m := range s.metadata {
		snap.Metadata[id] = m.Clone()
	}
	return snap
}

// Restore validates snap and installs a copy of it. On error the store is
// left unchanged.
func (s *Store) Restore(snap Snapshot) error {
	if err := Validate(snap); err != nil {
		return err
	}

	dim := s.dim
	if len(snap.Vectors) > 0 {
		dim = len(snap.Vectors[0])
	}

	ids := make([]int, len(snap.IDs))
	copy(ids, snap.IDs)
	vectors := make([][]float32, len(snap.Vectors))
	position := make(map[int]int, len(ids))
	metadata := make(map[int]models.Metadata, len(ids))
	for i, id := range ids {
		vectors[i] = cloneVector(snap.Vectors[i])
		position[id] = i
		m := snap.Metadata[id]
		m.ID = id
		metadata[id] = m.Clone()
	}

	s.ids, s.vectors, s.position, s.metadata, s.dim = ids, vectors, position, metadata, dim
	return nil
}

// Validate checks that snap keeps ids, vectors and metadata aligned.
func Validate(snap Snapshot) error {
	if len(snap.IDs) != len(snap.Vectors) {
		return fmt.Errorf("%w: %d ids but %d vectors", ErrInvalidSnapshot, len(snap.IDs), len(snap.Vectors))
	}

	seen := make(map[int]struct{}, len(snap.IDs))
	dim := -1
	for i, id := range snap.IDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %w: %d", ErrInvalidSnapshot, ErrDuplicateID, id)
		}
		seen[id] = struct{}{}

		if _, ok := snap.Metadata[id]; !ok {
			return fmt.Errorf("%w: no metadata for id %d", ErrInvalidSnapshot, id)
		}

		n := len(snap.Vectors[i])
		if n == 0 {
			return fmt.Errorf("%w: empty vector at position %d", ErrInvalidSnapshot, i)
		}
		if dim == -1 {
			dim = n
		} else if n != dim {
			return fmt.Errorf("%w: %w at position %d", ErrInvalidSnapshot, ErrDimensionMismatch, i)
		}
	}
	return nil
}

// IDs returns a copy of the ordered id list.
func (s *Store) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
