// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/recommend"
)

// CatalogEngine is the engine surface the bootstrap needs.
type CatalogEngine interface {
	Load(ctx context.Context) error
	InitializeCatalog(ctx context.Context, targetCount int) (pipeline.IngestReport, error)
	Status() recommend.Status
}

// BootstrapConfig configures BootstrapService.
type BootstrapConfig struct {
	// InitializeOnStartup runs a bulk initialization when no usable
	// snapshot was loaded.
	InitializeOnStartup bool

	// StartupSize is the target item count of that initialization.
	StartupSize int

	// InitTimeout bounds it.
	InitTimeout time.Duration
}

// BootstrapService restores the catalog at startup: it loads the snapshot
// and, when the catalog is still empty and InitializeOnStartup is set,
// runs one bulk initialization. It then exits without being restarted;
// later initializations go through the HTTP API.
type BootstrapService struct {
	engine CatalogEngine
	config BootstrapConfig
	logger zerolog.Logger
	name   string
}

// NewBootstrapService creates the catalog bootstrap service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBootstrapService(engine CatalogEngine, cfg BootstrapConfig, logger zerolog.Logger) *BootstrapService {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 30 * time.Minute
	}
	return &BootstrapService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "catalog-bootstrap").Logger(),
		name:   "catalog-bootstrap",
	}
}

// Serve implements suture.Service.
func (s *BootstrapService) Serve(ctx context.Context) error {
	if err := s.engine.Load(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The engine keeps an empty catalog and reports the error in Status.
		s.logger.Error().Err(err).Msg("Catalog snapshot could not be loaded")
	}

	st := s.engine.Status()
	if st.IndexReady {
		s.logger.Info().
			Int("items", st.ItemCount).
			Uint64("generation", st.Generation).
			Msg("Catalog restored from snapshot")
		return suture.ErrDoNotRestart
	}

	if !s.config.InitializeOnStartup {
		s.logger.Warn().Msg("Catalog is empty; call POST /api/v1/initialize to build it")
		return suture.ErrDoNotRestart
	}

	initCtx, cancel := context.WithTimeout(ctx, s.config.InitTimeout)
	defer cancel()

	s.logger.Info().Int("target", s.config.StartupSize).Msg("Building catalog on startup")
	report, err := s.engine.InitializeCatalog(initCtx, s.config.StartupSize)
	switch {
	case err == nil:
		s.logger.Info().
			Int("accepted", report.Accepted).
			Int("failed", report.Failed).
			Dur("duration", report.Duration).
			Msg("Startup catalog ready")
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, recommend.ErrInitInProgress):
		s.logger.Info().Msg("Initialization already started through the API")
	default:
		s.logger.Error().Err(err).Msg("Startup catalog initialization failed; retry with POST /api/v1/initialize")
	}
	return suture.ErrDoNotRestart
}

func (s *BootstrapService) String() string {
	return s.name
}
