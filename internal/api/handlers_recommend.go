// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/recommend"
	"github.com/tomtom215/reelscope/internal/validation"
)

// InitializeResult is the data of a successful POST /api/v1/initialize.
type InitializeResult struct {
	Report pipeline.IngestReport `json:"report"`
	Status recommend.Status      `json:"status"`
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidBody, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.engine.Recommend(ctx, req.toEngineRequest())
	if err != nil {
		respondDomainError(w, r, err, false)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("liked", len(req.LikedMovies)).
		Int("returned", len(resp.Recommendations)).
		Str("reason", resp.Reason).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("Recommendations served")

	meta := newMetadata(r)
	meta.QueryTimeMS = resp.Metadata.LatencyMS
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status:   statusSuccess,
		Data:     resp,
		Metadata: meta,
	})
}

// Initialize handles POST /api/v1/initialize?num_movies=N. It blocks until
// the new catalog is installed (or the run failed) and reports the run.
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "num_movies", defaultNumMovies)
	if err != nil {
		respondValidation(w, r, asValidationError(err, "num_movies"))
		return
	}
	params := InitializeParams{NumMovies: n}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.config.InitTimeout)
	defer cancel()

	logging.Ctx(r.Context()).Info().Int("num_movies", params.NumMovies).Msg("Catalog initialization requested")

	start := time.Now()
	report, err := h.engine.InitializeCatalog(ctx, params.NumMovies)
	if err != nil {
		respondDomainError(w, r, err, false)
		return
	}

	meta := newMetadata(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status:   statusSuccess,
		Data:     InitializeResult{Report: report, Status: h.engine.Status()},
		Metadata: meta,
	})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, h.engine.Status())
}

// Movie handles GET /api/v1/movie/{id}.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	m, err := h.engine.Movie(ctx, id)
	if err != nil {
		respondDomainError(w, r, err, true)
		return
	}
	respondData(w, r, m)
}

// pathID parses the {id} URL parameter as a positive integer, answering 400
// itself when it is not one.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
