// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package recommend is the recommendation engine.
//
// # Model
//
// Every cataloged movie has one unit-length embedding of its descriptive
// text. A user is described by the movies they rated; their profile is the
// rating-weighted mean of those embeddings, renormalized. Recommendations
// are the catalog movies with the highest inner product against the
// profile, excluding the rated movies themselves, optionally filtered by
// genre, year, rating, actor and runtime.
//
// # Concurrency
//
// The catalog store and the similarity index are one unit guarded by a
// single RWMutex. Searches hold the read lock. Appending a movie (and
// persisting the result) holds the write lock. A bulk initialization holds
// initMu exclusively for its whole run, builds the new catalog without
// touching the live one, and swaps it in under the write lock only after
// every step succeeded. Incremental commits take initMu shared, so they
// wait for a running initialization instead of interleaving with it.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), recommend.Options{
//		Pipeline:  pipe,
//		Details:   tmdbClient,
//		Snapshots: snaps,
//	}, logger)
//	if err := engine.Load(ctx); err != nil { ... }
//	resp, err := engine.Recommend(ctx, recommend.Request{
//		Rated: []profile.Rated{{MovieID: 603, Rating: 9}},
//		TopK:  10,
//	})
package recommend
