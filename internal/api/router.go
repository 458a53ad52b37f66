// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/middleware"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Middleware *ChiMiddlewareConfig

	// SlowRequestThreshold promotes access log lines to warn. Zero disables.
	SlowRequestThreshold time.Duration
}

// NewRouter wires the handlers behind the global middleware stack.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(h *Handler, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	mw := NewChiMiddleware(cfg.Middleware)
	accessLogger := logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(accessLogger, cfg.SlowRequestThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.With(mw.RateLimitStrict()).Post("/initialize", h.Initialize)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Post("/recommend", h.Recommend)
			r.Get("/status", h.Status)
			r.Get("/movie/{id}", h.Movie)

			r.Get("/search", h.Search)
			r.Get("/popular", h.Popular)
			r.Get("/top-rated", h.TopRated)
			r.Get("/genres", h.Genres)
			r.Get("/discover", h.Discover)
			r.Get("/search/person", h.SearchPerson)
			r.Get("/person/{id}/movies", h.PersonMovies)
		})
	})

	return r
}
