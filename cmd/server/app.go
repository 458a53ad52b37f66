// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/api"
	"github.com/tomtom215/reelscope/internal/config"
	"github.com/tomtom215/reelscope/internal/detailcache"
	"github.com/tomtom215/reelscope/internal/encoder"
	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/recommend"
	"github.com/tomtom215/reelscope/internal/snapshot"
	"github.com/tomtom215/reelscope/internal/supervisor"
	"github.com/tomtom215/reelscope/internal/supervisor/services"
	"github.com/tomtom215/reelscope/internal/tmdb"
)

const (
	// slowRequestThreshold promotes access log lines to warn.
	slowRequestThreshold = 2 * time.Second
	upstreamCheckTimeout = 5 * time.Second
)

// app owns every long-lived component.
type app struct {
	engine *recommend.Engine
	tmdb   tmdb.API
	cache  *detailcache.Cache
	tree   *supervisor.SupervisorTree
	logger zerolog.Logger
}

// newApp builds the component graph from cfg.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{logger: logger}

	tmdbBreaker := tmdb.NewCircuitBreakerClient(tmdb.NewClient(tmdb.Config{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		ImageBaseURL:      cfg.TMDB.ImageBaseURL,
		Language:          cfg.TMDB.Language,
		Timeout:           cfg.TMDB.Timeout,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		Burst:             cfg.TMDB.Burst,
		MaxRetries:        cfg.TMDB.MaxRetries,
		RetryDelay:        cfg.TMDB.RetryDelay,
	}, logger))

	a.tmdb = tmdbBreaker
	var provider tmdb.API = tmdbBreaker
	if cfg.Cache.Enabled {
		cache, err := detailcache.Open(detailcache.Config{
			Path: cfg.Cache.ResolvedPath(cfg.Storage.DataDir),
			TTL:  cfg.Cache.DetailTTL,
		}, tmdbBreaker, logger)
		if err != nil {
			return nil, fmt.Errorf("open detail cache: %w", err)
		}
		a.cache = cache
		provider = cache
	}

	embedder := encoder.NewCircuitBreakerEncoder(encoder.NewHTTPEncoder(encoder.Config{
		BaseURL:   cfg.Encoder.BaseURL,
		Model:     cfg.Encoder.Model,
		APIKey:    cfg.Encoder.APIKey,
		Dimension: cfg.Encoder.Dimension,
		Timeout:   cfg.Encoder.Timeout,
	}, logger))

	pipe := pipeline.New(provider, embedder, pipeline.Config{
		PageCeiling:      cfg.Catalog.PageCeiling,
		FetchConcurrency: cfg.Catalog.FetchConcurrency,
		BatchSize:        cfg.Encoder.BatchSize,
	}, logger)

	snaps, err := snapshot.NewStore(cfg.Storage.DataDir, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	engine, err := recommend.NewEngine(&recommend.Config{
		Dimension:       cfg.Encoder.Dimension,
		DefaultTopK:     cfg.Catalog.DefaultTopK,
		MaxTopK:         cfg.Catalog.MaxTopK,
		OverfetchFactor: cfg.Catalog.OverfetchFactor,
		MinInitialize:   cfg.Catalog.MinInitialize,
		MaxInitialize:   cfg.Catalog.MaxInitialize,
	}, recommend.Options{
		Pipeline:  pipe,
		Details:   provider,
		Snapshots: snaps,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.engine = engine

	handler := api.NewHandler(engine, provider, map[string]api.StateReporter{
		"tmdb":    tmdbBreaker,
		"encoder": embedder,
	}, api.HandlerConfig{
		InitTimeout:    cfg.Server.InitTimeout,
		RequestTimeout: cfg.Server.Timeout,
		Version:        version,
	}, logger)

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled

	server := &http.Server{
		Handler: api.NewRouter(handler, api.RouterConfig{
			Middleware:           mwCfg,
			SlowRequestThreshold: slowRequestThreshold,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Bulk initialization holds the response open for the whole run.
		WriteTimeout: cfg.Server.InitTimeout + cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}
	a.tree = tree

	tree.AddCatalogService(services.NewBootstrapService(engine, services.BootstrapConfig{
		InitializeOnStartup: cfg.Catalog.InitializeOnStartup,
		StartupSize:         cfg.Catalog.StartupSize,
		InitTimeout:         cfg.Server.InitTimeout,
	}, logger))
	if a.cache != nil {
		tree.AddCatalogService(services.NewCacheGCService(a.cache, 0, logger))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout, logger))

	return a, nil
}

// checkUpstream logs whether TMDB is reachable. Startup continues either
// way; the bootstrap service serves a persisted catalog without it.
func (a *app) checkUpstream(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, upstreamCheckTimeout)
	defer cancel()
	if err := a.tmdb.Ping(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("TMDB is not reachable; catalog initialization will fail until it is")
		return
	}
	a.logger.Info().Msg("TMDB reachable")
}

// Close releases resources that outlive the supervisor tree. Safe to call
// more than once.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Error closing detail cache")
		}
	}
}
