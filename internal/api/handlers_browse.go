// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/tmdb"
	"github.com/tomtom215/reelscope/internal/validation"
)

// serveListing answers a page-only listing endpoint with fetch.
func (h *Handler) serveListing(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) (*models.Page, error)) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondValidation(w, r, asValidationError(err, "page"))
		return
	}
	params := PageParams{Page: page}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	result, err := fetch(ctx, params.Page)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, result)
}

// Popular handles GET /api/v1/popular?page=.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	h.serveListing(w, r, func(ctx context.Context, page int) (*models.Page, error) {
		return h.provider.ListPopular(ctx, page)
	})
}

// TopRated handles GET /api/v1/top-rated?page=.
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	h.serveListing(w, r, func(ctx context.Context, page int) (*models.Page, error) {
		return h.provider.ListTopRated(ctx, page)
	})
}

// Search handles GET /api/v1/search?query=&page=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondValidation(w, r, asValidationError(err, "page"))
		return
	}
	params := SearchParams{Query: strings.TrimSpace(r.URL.Query().Get("query")), Page: page}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	result, err := h.provider.Search(ctx, params.Query, params.Page)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, result)
}

// Genres handles GET /api/v1/genres.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	genres, err := h.provider.Genres(ctx)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, genres)
}

// Discover handles GET /api/v1/discover?genre=&sort_by=&min_vote_count=&page=.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondValidation(w, r, asValidationError(err, "page"))
		return
	}
	minVotes, err := queryInt(r, "min_vote_count", 0)
	if err != nil {
		respondValidation(w, r, asValidationError(err, "min_vote_count"))
		return
	}
	q := r.URL.Query()
	params := DiscoverParams{
		Genre:        strings.TrimSpace(q.Get("genre")),
		SortBy:       q.Get("sort_by"),
		MinVoteCount: minVotes,
		Page:         page,
	}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	result, err := h.provider.Discover(ctx, tmdb.DiscoverOptions{
		SortBy:       params.SortBy,
		GenreID:      params.Genre,
		MinVoteCount: params.MinVoteCount,
		Page:         params.Page,
	})
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, result)
}

// SearchPerson handles GET /api/v1/search/person?query=.
func (h *Handler) SearchPerson(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	params := SearchParams{Query: strings.TrimSpace(r.URL.Query().Get("query")), Page: 1}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	people, err := h.provider.SearchPerson(ctx, params.Query)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, people)
}

// PersonMovies handles GET /api/v1/person/{id}/movies.
func (h *Handler) PersonMovies(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondDomainError(w, r, ErrProviderUnavailable, true)
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	credits, err := h.provider.PersonMovieCredits(ctx, id)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, credits)
}
