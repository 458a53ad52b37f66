// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

/*
Package supervisor runs Reelscope's long-lived components under a
thejerf/suture v4 supervisor tree.

The tree has two layers:

	reelscope (root)
	├── catalog-layer   catalog bootstrap, detail cache GC
	└── api-layer       HTTP server

A service that panics or returns an error is restarted with suture's
failure backoff. A crash in the catalog layer never takes the HTTP server
down: /health and /api/v1/status keep answering while the catalog
recovers.

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog stream via logging.NewSlogLogger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{})
	tree.AddCatalogService(services.NewBootstrapService(engine, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, ":8000", 10*time.Second, logger))
	err = tree.Serve(ctx)
*/
package supervisor
