// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

/*
Package middleware provides the HTTP middleware the API router installs in
front of every handler.

  - RequestID: accepts or generates an X-Request-ID and stores it in the
    logging context so every log line of the request carries it.
  - PrometheusMetrics: request counters, latency histograms and the
    in-flight gauge, labeled by chi route pattern rather than raw path.
  - AccessLog: one structured line per request, promoted to warn when the
    request is slower than a threshold.

All middleware has the func(http.Handler) http.Handler shape expected by
chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(logger, time.Second))
*/
package middleware
