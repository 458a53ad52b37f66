// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package profile turns a set of rated movies into a single unit-length
// taste vector in the catalog embedding space.
package profile

import (
	"errors"
	"math"

	"github.com/rs/zerolog"
)

var (
	// ErrProfileEmpty is returned when none of the rated movies are cataloged.
	ErrProfileEmpty = errors.New("profile: no rated movie is in the catalog")

	// ErrProfileDegenerate is returned when the combined vector has ~zero norm.
	ErrProfileDegenerate = errors.New("profile: combined vector has zero norm")
)

// MinNorm is the norm below which a profile cannot be normalized.
const MinNorm = 1e-9

// Rated is one liked movie with a rating in [0, 10].
type Rated struct {
	MovieID int
	Rating  float64
}

// VectorLookup resolves a movie id to its catalog vector.
type VectorLookup interface {
	Vector(id int) ([]float32, bool)
}

// Profile is the result of Build.
type Profile struct {
	Vector []float32

	// Resolved lists the rated ids found in the catalog, in input order and
	// without duplicates.
	Resolved []int

	// Missing lists the rated ids that were not found.
	Missing []int
}

// Builder computes rating-weighted mean profiles.
type Builder struct {
	logger zerolog.Logger
}

// NewBuilder returns a Builder that logs skipped ids at debug level.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{logger: logger.With().Str("component", "profile").Logger()}
}

// Build resolves each rated id, weights its vector by max(0, rating) and
// returns the normalized weighted mean. When every weight is zero the
// unweighted mean is used instead. Repeated ids count once, first rating wins.
func (b *Builder) Build(rated []Rated, lookup VectorLookup) (Profile, error) {
	var (
		prof    Profile
		vectors [][]float32
		weights []float64
		total   float64
		seen    = make(map[int]struct{}, len(rated))
	)

	for _, r := range rated {
		if _, dup := seen[r.MovieID]; dup {
			continue
		}
		seen[r.MovieID] = struct{}{}

		v, ok := lookup.Vector(r.MovieID)
		if !ok {
			prof.Missing = append(prof.Missing, r.MovieID)
			b.logger.Debug().Int("movie_id", r.MovieID).Msg("Rated movie not in catalog, skipping")
			continue
		}

		w := math.Max(0, r.Rating)
		prof.Resolved = append(prof.Resolved, r.MovieID)
		vectors = append(vectors, v)
		weights = append(weights, w)
		total += w
	}

	if len(vectors) == 0 {
		return prof, ErrProfileEmpty
	}

	dim := len(vectors[0])
	acc := make([]float64, dim)
	for i, v := range vectors {
		w := 1.0
		if total > 0 {
			w = weights[i]
		}
		for j := 0; j < dim && j < len(v); j++ {
			acc[j] += w * float64(v[j])
		}
	}

	div := float64(len(vectors))
	if total > 0 {
		div = total
	}

	var norm float64
	for j := range acc {
		acc[j] /= div
		norm += acc[j] * acc[j]
	}
	norm = math.Sqrt(norm)
	if norm <= MinNorm {
		return prof, ErrProfileDegenerate
	}

	prof.Vector = make([]float32, dim)
	for j := range acc {
		prof.Vector[j] = float32(acc[j] / norm)
	}
	return prof, nil
}
