// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/reelscope/internal/logging"
)

type mapLookup map[int][]float32

func (m mapLookup) Vector(id int) ([]float32, bool) {
	v, ok := m[id]
	return v, ok
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func newBuilder() *Builder { return NewBuilder(logging.Nop()) }

func TestBuildWeighted(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {1, 0}, 2: {0, 1}, 3: {0.6, 0.8}}

	prof, err := newBuilder().Build([]Rated{{MovieID: 1, Rating: 10}, {MovieID: 2, Rating: 0}}, lookup)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if prof.Vector[0] != 1 || prof.Vector[1] != 0 {
		t.Errorf("Vector = %v, want exactly (1, 0)", prof.Vector)
	}
	if len(prof.Resolved) != 2 {
		t.Errorf("Resolved = %v", prof.Resolved)
	}
}

func TestBuildUnitNorm(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {1, 0, 0}, 2: {0, 1, 0}, 3: {0, 0.6, 0.8}}
	prof, err := newBuilder().Build([]Rated{{1, 3}, {2, 7}, {3, 9.5}}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if n := norm(prof.Vector); math.Abs(n-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", n)
	}
}

func TestBuildScaleInvariant(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {1, 0}, 2: {0.6, 0.8}, 3: {0, 1}}
	base := []Rated{{1, 2}, {2, 5}, {3, 1}}
	scaled := []Rated{{1, 6}, {2, 15}, {3, 3}}

	a, err := newBuilder().Build(base, lookup)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newBuilder().Build(scaled, lookup)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Vector {
		if math.Abs(float64(a.Vector[i]-b.Vector[i])) > 1e-6 {
			t.Errorf("component %d: %v vs %v", i, a.Vector[i], b.Vector[i])
		}
	}
}

func TestBuildZeroWeightsFallsBackToMean(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {1, 0}, 2: {0, 1}}
	prof, err := newBuilder().Build([]Rated{{1, 0}, {2, -3}}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	want := float32(1 / math.Sqrt2)
	for i, v := range prof.Vector {
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Errorf("component %d = %v, want %v", i, v, want)
		}
	}
}

func TestBuildSkipsMissing(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {0, 1}}
	prof, err := newBuilder().Build([]Rated{{99, 10}, {1, 2}}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if len(prof.Missing) != 1 || prof.Missing[0] != 99 {
		t.Errorf("Missing = %v", prof.Missing)
	}
	if prof.Vector[1] != 1 {
		t.Errorf("Vector = %v", prof.Vector)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	lookup := mapLookup{1: {1, 0}, 2: {-1, 0}}

	if _, err := newBuilder().Build([]Rated{{5, 8}}, lookup); !errors.Is(err, ErrProfileEmpty) {
		t.Errorf("err = %v, want ErrProfileEmpty", err)
	}
	if _, err := newBuilder().Build(nil, lookup); !errors.Is(err, ErrProfileEmpty) {
		t.Errorf("err = %v, want ErrProfileEmpty", err)
	}
	if _, err := newBuilder().Build([]Rated{{1, 5}, {2, 5}}, lookup); !errors.Is(err, ErrProfileDegenerate) {
		t.Errorf("err = %v, want ErrProfileDegenerate", err)
	}
}
