// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/catalog"
	"github.com/tomtom215/reelscope/internal/filter"
	"github.com/tomtom215/reelscope/internal/index"
	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/metrics"
	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/profile"
	"github.com/tomtom215/reelscope/internal/snapshot"
)

// DetailFetcher resolves a movie that is not cataloged. *tmdb.Client satisfies it.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int) (*models.Metadata, error)
}

// Options wires the engine's collaborators. Any of them may be nil: without
// a Pipeline unknown ids are never fetched, without Snapshots nothing is
// persisted.
type Options struct {
	Pipeline  *pipeline.Pipeline
	Details   DetailFetcher
	Snapshots *snapshot.Store
}

// Engine serves recommendations from the in-memory catalog. It is safe for
// concurrent use.
type Engine struct {
	config    *Config
	pipeline  *pipeline.Pipeline
	details   DetailFetcher
	snapshots *snapshot.Store
	profiles  *profile.Builder
	logger    zerolog.Logger

	// initMu is held exclusively for a whole bulk initialization and shared
	// by incremental commits.
	initMu       sync.RWMutex
	initializing atomic.Bool

	// mu guards everything below.
	mu                sync.RWMutex
	store             *catalog.Store
	index             *index.Flat
	generation        uint64
	lastInitializedAt time.Time
	lastIngest        *pipeline.IngestReport
	loadErr           error
}

var _ pipeline.Committer = (*Engine)(nil)

// NewEngine returns an engine with an empty catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, opts Options, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Pipeline != nil && opts.Pipeline.Dimension() != cfg.Dimension {
		return nil, fmt.Errorf("encoder dimension %d does not match engine dimension %d",
			opts.Pipeline.Dimension(), cfg.Dimension)
	}

	logger = logger.With().Str("component", "recommend").Logger()
	return &Engine{
		config:    cfg,
		pipeline:  opts.Pipeline,
		details:   opts.Details,
		snapshots: opts.Snapshots,
		profiles:  profile.NewBuilder(logger),
		logger:    logger,
		store:     catalog.NewStore(cfg.Dimension),
		index:     index.NewFlat(cfg.Dimension),
	}, nil
}

// Recommend ranks catalog movies against the profile of req.Rated.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	req, err := e.prepareRequest(req)
	if err != nil {
		metrics.RecordRecommendation("invalid", time.Since(start))
		return nil, err
	}
	logger := logging.Ctx(ctx).With().
		Str("component", "recommend").
		Int("rated", len(req.Rated)).
		Int("top_k", req.TopK).
		Logger()

	e.ensureRated(ctx, req.Rated)

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.index.Len() == 0 {
		metrics.RecordRecommendation("not_ready", time.Since(start))
		return nil, ErrIndexEmpty
	}

	prof, err := e.profiles.Build(req.Rated, e.store)
	resp := &Response{
		Recommendations: []Recommendation{},
		ProfileMovies:   e.profileMovies(prof.Resolved),
		Metadata: ResponseMetadata{
			CatalogSize: e.store.Len(),
			Generation:  e.generation,
			Resolved:    nonNilInts(prof.Resolved),
			Missing:     prof.Missing,
		},
	}
	switch {
	case errors.Is(err, profile.ErrProfileEmpty):
		resp.Reason = ReasonProfileEmpty
	case errors.Is(err, profile.ErrProfileDegenerate):
		resp.Reason = ReasonProfileDegenerate
	case err != nil:
		metrics.RecordRecommendation("error", time.Since(start))
		return nil, fmt.Errorf("build profile: %w", err)
	}
	if resp.Reason != "" {
		logger.Info().Str("reason", resp.Reason).Msg("No usable profile")
		resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
		resp.Metadata.Timestamp = time.Now()
		metrics.RecordRecommendation(resp.Reason, time.Since(start))
		return resp, nil
	}

	exclude := make(map[int]struct{}, len(prof.Resolved))
	for _, id := range prof.Resolved {
		if pos, ok := e.store.IndexOf(id); ok {
			exclude[pos] = struct{}{}
		}
	}

	if err := e.search(prof.Vector, exclude, req, resp); err != nil {
		metrics.RecordRecommendation("error", time.Since(start))
		return nil, err
	}

	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now()
	metrics.RecordRecommendation("ok", time.Since(start))

	logger.Info().
		Int("returned", len(resp.Recommendations)).
		Int("searched", resp.Metadata.Searched).
		Int("widenings", resp.Metadata.Widenings).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("Recommendations served")
	return resp, nil
}

// search runs the overfetching search, applies the filter and doubles the
// search width until TopK results survive or the catalog is exhausted.
// Must be called with mu held.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) search(query []float32, exclude map[int]struct{}, req Request, resp *Response) error {
	k := req.TopK * e.config.OverfetchFactor
	for {
		hits, err := e.index.Search(query, k, exclude)
		if err != nil {
			return fmt.Errorf("search index: %w", err)
		}
		resp.Metadata.Searched = len(hits)

		recs := make([]Recommendation, 0, req.TopK)
		for _, hit := range hits {
			item, ok := e.store.At(hit.Position)
			if !ok {
				continue
			}
			if !filter.Matches(&item.Metadata, req.Filter) {
				continue
			}
			recs = append(recs, newRecommendation(&item.Metadata, hit.Score))
			if len(recs) == req.TopK {
				break
			}
		}
		resp.Recommendations = recs

		exhausted := len(hits) < k
		if len(recs) >= req.TopK || exhausted {
			return nil
		}
		k *= 2
		resp.Metadata.Widenings++
		metrics.RecommendSearchWidenings.Inc()
	}
}

// prepareRequest applies defaults and validates limits.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) (Request, error) {
	if len(req.Rated) == 0 {
		return req, fmt.Errorf("%w: at least one rated movie is required", ErrInvalidRequest)
	}
	for _, r := range req.Rated {
		if r.Rating < 0 || r.Rating > 10 {
			return req, fmt.Errorf("%w: rating %.2f for movie %d outside [0, 10]", ErrInvalidRequest, r.Rating, r.MovieID)
		}
	}
	if req.TopK == 0 {
		req.TopK = e.config.DefaultTopK
	}
	if req.TopK < 1 || req.TopK > e.config.MaxTopK {
		return req, fmt.Errorf("%w: top_k must be in [1, %d], got %d", ErrInvalidRequest, e.config.MaxTopK, req.TopK)
	}
	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return req, nil
}

// ensureRated catalogs rated movies the engine has not seen yet. Each id is
// attempted at most once per call; failures leave the id unresolved.
func (e *Engine) ensureRated(ctx context.Context, rated []profile.Rated) {
	if e.pipeline == nil {
		return
	}
	attempted := make(map[int]struct{}, len(rated))
	for _, r := range rated {
		if _, done := attempted[r.MovieID]; done {
			continue
		}
		attempted[r.MovieID] = struct{}{}

		if err := e.pipeline.EnsureItem(ctx, r.MovieID, e); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("movie_id", r.MovieID).
				Msg("Could not add rated movie to catalog")
		}
	}
}

// profileMovies returns metadata for ids. Must be called with mu held.
func (e *Engine) profileMovies(ids []int) []models.Metadata {
	out := make([]models.Metadata, 0, len(ids))
	for _, id := range ids {
		if m, ok := e.store.Metadata(id); ok {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Movie returns the metadata for id, from the catalog when present and from
// the detail provider otherwise.
func (e *Engine) Movie(ctx context.Context, id int) (*models.Metadata, error) {
	e.mu.RLock()
	m, ok := e.store.Metadata(id)
	if ok {
		c := m.Clone()
		e.mu.RUnlock()
		return &c, nil
	}
	e.mu.RUnlock()

	if e.details == nil {
		return nil, fmt.Errorf("%w: %d is not cataloged", ErrMovieNotFound, id)
	}
	return e.details.FetchDetail(ctx, id)
}

// Status reports catalog readiness.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		ItemCount:          e.store.Len(),
		IndexReady:         e.index.Len() > 0,
		Dimension:          e.config.Dimension,
		Generation:         e.generation,
		Initializing:       e.initializing.Load(),
		PersistenceEnabled: e.snapshots != nil,
	}
	if !e.lastInitializedAt.IsZero() {
		t := e.lastInitializedAt
		st.LastInitializedAt = &t
	}
	if e.lastIngest != nil {
		r := *e.lastIngest
		st.LastIngest = &r
	}
	if e.loadErr != nil {
		st.LoadError = e.loadErr.Error()
	}
	return st
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
