// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package main is the entry point for the Reelscope server.
//
// Reelscope recommends movies by meaning rather than by co-ratings: every
// catalog movie is embedded from its title, genres, overview, keywords,
// cast and director, a user's liked movies are combined into a
// rating-weighted profile vector, and the nearest catalog movies by cosine
// similarity are returned.
//
// # Startup Order
//
//  1. Configuration: koanf layers (defaults, config.yaml, environment)
//  2. Logging: zerolog level and format from configuration
//  3. TMDB client behind a circuit breaker, optionally behind the BadgerDB
//     detail cache
//  4. Embedding server client behind a circuit breaker
//  5. Ingestion pipeline, snapshot store and recommendation engine
//  6. Supervisor tree: catalog bootstrap (snapshot load, optional startup
//     initialization), detail cache GC, HTTP server
//
// # Configuration
//
// The only required setting is the TMDB read access token:
//
//	export TMDB_API_KEY=eyJhbGciOi...
//	export ENCODER_URL=http://localhost:8080
//	./reelscope
//
// See internal/config for every key and its environment variable.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests for server.shutdown_timeout, the detail cache is
// closed, and the process exits. A catalog initialization in flight is
// abandoned; the previous snapshot on disk stays valid.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reelscope/internal/config"
	"github.com/tomtom215/reelscope/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("data_dir", cfg.Storage.DataDir).
		Str("encoder", cfg.Encoder.BaseURL).
		Str("language", cfg.TMDB.Language).
		Bool("detail_cache", cfg.Cache.Enabled).
		Msg("Starting Reelscope")

	application, err := newApp(cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.checkUpstream(ctx)

	logging.Info().Msg("Starting supervisor tree")
	if err := application.tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		application.Close()
		os.Exit(1)
	}

	if report, err := application.tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	logging.Info().Msg("Reelscope stopped")
}
