// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package filter decides whether a movie satisfies a user's optional
// constraints. Every constraint that is set must hold; an unset constraint
// always holds.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/validation"
)

// Spec is a set of optional constraints. Nil fields are not checked.
type Spec struct {
	Genre      *string  `json:"genre,omitempty"`
	MinYear    *int     `json:"min_year,omitempty" validate:"omitempty,gte=1870,lte=2100"`
	MinRating  *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Actor      *string  `json:"actor,omitempty"`
	MinRuntime *int     `json:"min_runtime,omitempty" validate:"omitempty,gte=0"`
	MaxRuntime *int     `json:"max_runtime,omitempty" validate:"omitempty,gte=0"`
}

// IsEmpty reports whether no constraint is set.
func (s *Spec) IsEmpty() bool {
	return s == nil || (s.Genre == nil && s.MinYear == nil && s.MinRating == nil &&
		s.Actor == nil && s.MinRuntime == nil && s.MaxRuntime == nil)
}

// Validate checks value ranges.
func (s *Spec) Validate() error {
	if s == nil {
		return nil
	}
	if verr := validation.ValidateStruct(s); verr != nil {
		return verr
	}
	if s.MinRuntime != nil && s.MaxRuntime != nil && *s.MaxRuntime < *s.MinRuntime {
		return &validation.Error{Fields: []validation.FieldError{{
			Field:   "max_runtime",
			Tag:     "gtefield",
			Param:   "min_runtime",
			Message: fmt.Sprintf("max_runtime (%d) must be greater than or equal to min_runtime (%d)", *s.MaxRuntime, *s.MinRuntime),
		}}}
	}
	return nil
}

// Matches reports whether m satisfies every constraint in s. A nil spec
// matches everything.
func Matches(m *models.Metadata, s *Spec) bool {
	if s == nil {
		return true
	}
	if s.Genre != nil && !hasGenre(m.Genres, *s.Genre) {
		return false
	}
	if s.MinYear != nil {
		year, ok := ReleaseYear(m.ReleaseDate)
		if !ok || year < *s.MinYear {
			return false
		}
	}
	if s.MinRating != nil && m.Rating() < *s.MinRating {
		return false
	}
	if s.Actor != nil && !castContains(m.Cast, *s.Actor) {
		return false
	}
	runtime := m.Runtime()
	if s.MinRuntime != nil && runtime < *s.MinRuntime {
		return false
	}
	if s.MaxRuntime != nil && runtime > *s.MaxRuntime {
		return false
	}
	return true
}

// ReleaseYear parses the leading four digits of a release date such as
// "1999-03-31".
func ReleaseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 0 {
		return 0, false
	}
	return year, true
}

func hasGenre(genres []string, want string) bool {
	for _, g := range genres {
		if g == want {
			return true
		}
	}
	return false
}

func castContains(cast []string, actor string) bool {
	needle := strings.ToLower(actor)
	for _, name := range cast {
		if strings.Contains(strings.ToLower(name), needle) {
			return true
		}
	}
	return false
}
