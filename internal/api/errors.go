// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/reelscope/internal/breaker"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/recommend"
	"github.com/tomtom215/reelscope/internal/tmdb"
	"github.com/tomtom215/reelscope/internal/validation"
)

// Error codes returned in error.code.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidBody         = "INVALID_BODY"
	CodeCatalogNotReady     = "CATALOG_NOT_READY"
	CodeInitInProgress      = "INIT_IN_PROGRESS"
	CodeNotFound            = "NOT_FOUND"
	CodeIngestionFailed     = "INGESTION_FAILED"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrProviderUnavailable is returned by metadata endpoints when the server
// was started without a metadata provider.
var ErrProviderUnavailable = errors.New("metadata provider not configured")

// classifyError maps a domain error to status, code and client message.
// Upstream is true for endpoints that are thin proxies over TMDB, where an
// unrecognized error is the provider's fault rather than ours.
func classifyError(err error, upstream bool) (status int, code, message string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidRequest):
		return http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, recommend.ErrIndexEmpty):
		return http.StatusServiceUnavailable, CodeCatalogNotReady,
			"The movie catalog is not initialized yet; call POST /api/v1/initialize first"
	case errors.Is(err, recommend.ErrInitInProgress):
		return http.StatusConflict, CodeInitInProgress, "A catalog initialization is already running"
	case errors.Is(err, recommend.ErrMovieNotFound), errors.Is(err, tmdb.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "Movie not found"
	case errors.Is(err, pipeline.ErrNoItems):
		return http.StatusBadGateway, CodeIngestionFailed, "No movie could be fetched and encoded"
	case errors.Is(err, breaker.ErrOpen), errors.Is(err, ErrProviderUnavailable):
		return http.StatusServiceUnavailable, CodeUpstreamUnavailable,
			"An upstream service is unavailable, retry later"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, "The operation timed out"
	case upstream:
		return http.StatusBadGateway, CodeUpstreamError, "The metadata provider returned an error"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// respondDomainError classifies err and writes the matching envelope.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, upstream bool) {
	status, code, message := classifyError(err, upstream)
	apiErr := &APIError{Code: code, Message: message}

	var verr *validation.Error
	if status == http.StatusBadRequest && errors.As(err, &verr) {
		apiErr.Details = verr.ToAPIError().Details
	}
	respondAPIError(w, r, status, apiErr, err)
}
