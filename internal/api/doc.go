// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

/*
Package api is the HTTP transport of Reelscope.

Routes (chi):

	POST /api/v1/recommend              ranked recommendations for liked movies
	POST /api/v1/initialize?num_movies  bulk catalog (re)initialization
	GET  /api/v1/status                 catalog readiness
	GET  /api/v1/movie/{id}             movie details (catalog first, then TMDB)
	GET  /api/v1/search?query=&page=    TMDB title search
	GET  /api/v1/popular?page=          TMDB popular listing
	GET  /api/v1/top-rated?page=        TMDB top rated listing
	GET  /api/v1/genres                 genre list including comedy sub-genres
	GET  /api/v1/discover?genre=&page=  best rated movies of a genre
	GET  /api/v1/search/person?query=   actor and director search
	GET  /api/v1/person/{id}/movies     acting credits, best rated first
	GET  /health, /health/live, /health/ready
	GET  /metrics                       Prometheus exposition

Every JSON response uses the same envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "error": {"code": "...", "message": "...", "details": {...}},
	  "metadata": {"timestamp": "...", "request_id": "...", "query_time_ms": 12}
	}

Request bodies are validated with go-playground/validator through the
validation package; failures answer 400 VALIDATION_ERROR with the offending
field names in error.details.fields.
*/
package api
