// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package recommend

import (
	"errors"
	"time"

	"github.com/tomtom215/reelscope/internal/filter"
	"github.com/tomtom215/reelscope/internal/index"
	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/profile"
)

var (
	// ErrIndexEmpty is returned by Recommend before any catalog exists.
	ErrIndexEmpty = index.ErrIndexEmpty

	// ErrInitInProgress is returned when a bulk initialization is already running.
	ErrInitInProgress = errors.New("catalog initialization already in progress")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMovieNotFound is returned by Movie when the id is neither
	// cataloged nor resolvable through the detail provider.
	ErrMovieNotFound = errors.New("movie not found")
)

// Reasons reported with an empty recommendation list.
const (
	ReasonProfileEmpty      = "profile_empty"
	ReasonProfileDegenerate = "profile_degenerate"
)

// Request asks for recommendations.
type Request struct {
	Rated  []profile.Rated
	TopK   int
	Filter *filter.Spec
}

// Recommendation is one ranked movie.
type Recommendation struct {
	MovieID     int      `json:"movie_id"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	Genres      []string `json:"genres"`
	Runtime     *int     `json:"runtime,omitempty"`
	Director    string   `json:"director,omitempty"`
	Cast        []string `json:"cast,omitempty"`
}

// Response is the result of Recommend.
type Response struct {
	Recommendations []Recommendation  `json:"recommendations"`
	ProfileMovies   []models.Metadata `json:"user_profile_movies"`

	// Reason is set when Recommendations is empty because no usable
	// profile could be built.
	Reason string `json:"reason,omitempty"`

	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	CatalogSize int       `json:"catalog_size"`
	Generation  uint64    `json:"generation"`
	Resolved    []int     `json:"resolved_ids"`
	Missing     []int     `json:"missing_ids,omitempty"`
	Searched    int       `json:"searched"`
	Widenings   int       `json:"widenings"`
	LatencyMS   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Status is a point-in-time view of the catalog.
type Status struct {
	ItemCount          int                    `json:"item_count"`
	IndexReady         bool                   `json:"index_ready"`
	Dimension          int                    `json:"dimension"`
	Generation         uint64                 `json:"generation"`
	Initializing       bool                   `json:"initializing"`
	PersistenceEnabled bool                   `json:"persistence_enabled"`
	LastInitializedAt  *time.Time             `json:"last_initialized_at,omitempty"`
	LastIngest         *pipeline.IngestReport `json:"last_ingest,omitempty"`
	LoadError          string                 `json:"load_error,omitempty"`
}

func newRecommendation(m *models.Metadata, score float32) Recommendation {
	return Recommendation{
		MovieID:     m.ID,
		Title:       m.Title,
		Score:       clampScore(score),
		PosterURL:   m.PosterURL,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
		Genres:      nonNil(m.Genres),
		Runtime:     m.RuntimeMinutes,
		Director:    m.Director,
		Cast:        m.Cast,
	}
}

// clampScore maps an inner product of unit vectors onto [0, 1].
func clampScore(s float32) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return float64(s)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
