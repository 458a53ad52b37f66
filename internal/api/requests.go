// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelscope/internal/filter"
	"github.com/tomtom215/reelscope/internal/profile"
	"github.com/tomtom215/reelscope/internal/recommend"
	"github.com/tomtom215/reelscope/internal/validation"
)

const (
	// maxBodyBytes caps request bodies.
	maxBodyBytes = 1 << 20

	// defaultRating is applied to liked movies sent without a rating.
	defaultRating = 5.0

	defaultNumMovies = 500
)

// LikedMovie is one entry of RecommendRequest.LikedMovies.
type LikedMovie struct {
	MovieID int      `json:"movie_id" validate:"required,gt=0"`
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// RecommendRequest is the body of POST /api/v1/recommend.
type RecommendRequest struct {
	LikedMovies []LikedMovie `json:"liked_movies" validate:"required,min=1,max=100,dive"`
	TopK        *int         `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
	Filters     *filter.Spec `json:"filters,omitempty"`
}

// toEngineRequest converts the body into an engine request. Liked movies
// without a rating count as 5/10.
func (req *RecommendRequest) toEngineRequest() recommend.Request {
	rated := make([]profile.Rated, len(req.LikedMovies))
	for i, lm := range req.LikedMovies {
		rating := defaultRating
		if lm.Rating != nil {
			rating = *lm.Rating
		}
		rated[i] = profile.Rated{MovieID: lm.MovieID, Rating: rating}
	}

	out := recommend.Request{Rated: rated, Filter: req.Filters}
	if req.TopK != nil {
		out.TopK = *req.TopK
	}
	return out
}

// InitializeParams are the query parameters of POST /api/v1/initialize.
type InitializeParams struct {
	NumMovies int `json:"num_movies" validate:"min=100,max=10000"`
}

// PageParams are the query parameters of paginated listing endpoints.
type PageParams struct {
	Page int `json:"page" validate:"min=1,max=500"`
}

// SearchParams are the query parameters of search endpoints.
type SearchParams struct {
	Query string `json:"query" validate:"required,max=200"`
	Page  int    `json:"page" validate:"min=1,max=500"`
}

// DiscoverParams are the query parameters of GET /api/v1/discover.
type DiscoverParams struct {
	Genre        string `json:"genre" validate:"required,max=64"`
	SortBy       string `json:"sort_by" validate:"omitempty,oneof=vote_average.desc popularity.desc release_date.desc revenue.desc"`
	MinVoteCount int    `json:"min_vote_count" validate:"gte=0"`
	Page         int    `json:"page" validate:"min=1,max=500"`
}

// decodeJSONBody decodes a bounded JSON body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// queryInt returns the integer query parameter key, or def when absent.
// A present but non-numeric value is an error rather than silently
// defaulted, so that ?page=abc fails validation visibly.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &validation.Error{Fields: []validation.FieldError{{
			Field:   key,
			Tag:     "numeric",
			Message: key + " must be an integer",
		}}}
	}
	return v, nil
}

// respondValidation writes a 400 for a validation failure.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.Error) {
	v := verr.ToAPIError()
	respondAPIError(w, r, http.StatusBadRequest, &APIError{Code: v.Code, Message: v.Message, Details: v.Details}, nil)
}

// asValidationError extracts a *validation.Error from err, wrapping other
// errors into a single-field failure.
func asValidationError(err error, field string) *validation.Error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr
	}
	return &validation.Error{Fields: []validation.FieldError{{Field: field, Message: err.Error()}}}
}
