// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package metrics registers the Prometheus collectors exported on /metrics.
//
// Collectors are package-level promauto variables; helpers such as
// RecordRecommendation keep label handling in one place. Groups:
//
//   - Recommendation requests and latency
//   - Catalog size, generation and ingestion outcomes
//   - Snapshot persistence
//   - Upstream circuit breakers (TMDB, encoder)
//   - Detail cache efficiency
//   - HTTP API throughput and latency
package metrics
