// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/recommend"
	"github.com/tomtom215/reelscope/internal/tmdb"
)

// Recommender is the engine surface the handlers use.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	InitializeCatalog(ctx context.Context, targetCount int) (pipeline.IngestReport, error)
	Status() recommend.Status
	Movie(ctx context.Context, id int) (*models.Metadata, error)
}

// MetadataProvider serves the catalog-independent browsing endpoints.
type MetadataProvider interface {
	Search(ctx context.Context, query string, page int) (*models.Page, error)
	ListPopular(ctx context.Context, page int) (*models.Page, error)
	ListTopRated(ctx context.Context, page int) (*models.Page, error)
	Discover(ctx context.Context, opts tmdb.DiscoverOptions) (*models.Page, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	SearchPerson(ctx context.Context, query string) ([]tmdb.Person, error)
	PersonMovieCredits(ctx context.Context, personID int) ([]tmdb.PersonCredit, error)
}

// StateReporter is implemented by the circuit breaker decorators.
type StateReporter interface {
	State() string
}

// HandlerConfig configures Handler.
type HandlerConfig struct {
	// InitTimeout bounds a bulk initialization started over HTTP. The run
	// is detached from the client connection so a disconnect does not
	// abort it half way.
	InitTimeout time.Duration

	// RequestTimeout bounds every other handler.
	RequestTimeout time.Duration

	// Version is reported by /health.
	Version string
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	engine    Recommender
	provider  MetadataProvider
	breakers  map[string]StateReporter
	config    HandlerConfig
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler returns a Handler. provider may be nil, in which case the
// browsing endpoints answer 503. breakers maps a dependency name ("tmdb",
// "encoder") to its circuit breaker for /health.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(engine Recommender, provider MetadataProvider, breakers map[string]StateReporter, cfg HandlerConfig, logger zerolog.Logger) *Handler {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 30 * time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handler{
		engine:    engine,
		provider:  provider,
		breakers:  breakers,
		config:    cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

// requestContext derives the bounded context for a regular handler.
func (h *Handler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.config.RequestTimeout)
}
