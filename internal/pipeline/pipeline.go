// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package pipeline turns TMDB listings into catalog items.
//
// A bulk run pages through "popular" until half the target is accepted, then
// "top rated" until the full target is reached. Ids already seen in the run
// are skipped. Each new id is fetched in full, rendered to embedding text
// and encoded. A failed fetch or encode skips that item only; the run keeps
// paging so the quota can still be met. The pipeline never touches the live
// catalog: Initialize returns the items and the caller installs them.
//
// EnsureItem is the single-item path used when a request names a movie the
// catalog does not know yet.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelscope/internal/breaker"
	"github.com/tomtom215/reelscope/internal/catalog"
	"github.com/tomtom215/reelscope/internal/encoder"
	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/metrics"
	"github.com/tomtom215/reelscope/internal/models"
)

var (
	// ErrPartialIngestion marks a single item that could not be fetched or
	// encoded. It never aborts a run.
	ErrPartialIngestion = errors.New("pipeline: item skipped")

	// ErrNoItems is returned when a bulk run accepts nothing.
	ErrNoItems = errors.New("pipeline: no items accepted")
)

// Provider is the metadata source. *tmdb.Client satisfies it.
type Provider interface {
	FetchDetail(ctx context.Context, id int) (*models.Metadata, error)
	ListPopular(ctx context.Context, page int) (*models.Page, error)
	ListTopRated(ctx context.Context, page int) (*models.Page, error)
}

// Committer receives items produced by EnsureItem.
type Committer interface {
	Contains(id int) bool
	Commit(ctx context.Context, item catalog.Item) error
}

// Config tunes the pipeline.
type Config struct {
	// PageCeiling caps how many pages of each listing are read.
	PageCeiling int

	// FetchConcurrency bounds concurrent detail fetches and encoder calls.
	FetchConcurrency int

	// BatchSize is the number of texts per encoder call when the encoder
	// supports batching.
	BatchSize int
}

// DefaultConfig returns the defaults used when a field is zero.
func DefaultConfig() Config {
	return Config{
		PageCeiling:      500,
		FetchConcurrency: 8,
		BatchSize:        32,
	}
}

// IngestReport summarizes one run.
type IngestReport struct {
	RunID     string        `json:"run_id,omitempty"`
	Requested int           `json:"requested"`
	Accepted  int           `json:"accepted"`
	Failed    int           `json:"failed"`
	Pages     int           `json:"pages"`
	Duration  time.Duration `json:"duration_ns"`
}

// Pipeline fetches, embeds and assembles catalog items.
type Pipeline struct {
	provider Provider
	enc      encoder.Encoder
	cfg      Config
	logger   zerolog.Logger
}

// New returns a pipeline. Zero config fields take their defaults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(provider Provider, enc encoder.Encoder, cfg Config, logger zerolog.Logger) *Pipeline {
	def := DefaultConfig()
	if cfg.PageCeiling <= 0 {
		cfg.PageCeiling = def.PageCeiling
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	return &Pipeline{
		provider: provider,
		enc:      enc,
		cfg:      cfg,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Dimension is the encoder's output dimension.
func (p *Pipeline) Dimension() int { return p.enc.Dimension() }

type listFunc func(ctx context.Context, page int) (*models.Page, error)

type run struct {
	p      *Pipeline
	seen   map[int]struct{}
	items  []catalog.Item
	report IngestReport
	logger zerolog.Logger
}

// Initialize builds a fresh set of up to targetCount items. Listing order is
// preserved. An error means the caller must keep its current catalog.
func (p *Pipeline) Initialize(ctx context.Context, targetCount int) ([]catalog.Item, IngestReport, error) {
	runID := logging.NewRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := p.logger.With().Str("run_id", runID).Logger()

	start := time.Now()
	r := &run{
		p:      p,
		seen:   make(map[int]struct{}, targetCount),
		items:  make([]catalog.Item, 0, targetCount),
		report: IngestReport{RunID: runID, Requested: targetCount},
		logger: logger,
	}

	logger.Info().
		Int("target", targetCount).
		Int("concurrency", p.cfg.FetchConcurrency).
		Msg("Catalog ingestion started")

	err := r.fill(ctx, "popular", p.provider.ListPopular, targetCount/2)
	if err == nil {
		err = r.fill(ctx, "top_rated", p.provider.ListTopRated, targetCount)
	}

	r.report.Accepted = len(r.items)
	r.report.Duration = time.Since(start)
	metrics.RecordIngest("bulk", r.report.Accepted, r.report.Failed, r.report.Duration)

	if err != nil {
		logger.Error().Err(err).
			Int("accepted", r.report.Accepted).
			Int("pages", r.report.Pages).
			Msg("Catalog ingestion aborted")
		return nil, r.report, err
	}
	if len(r.items) == 0 {
		return nil, r.report, ErrNoItems
	}

	logger.Info().
		Int("accepted", r.report.Accepted).
		Int("failed", r.report.Failed).
		Int("pages", r.report.Pages).
		Dur("duration", r.report.Duration).
		Msg("Catalog ingestion finished")
	return r.items, r.report, nil
}

// fill pages through one listing until len(items) reaches quota.
func (r *run) fill(ctx context.Context, source string, list listFunc, quota int) error {
	for page := 1; len(r.items) < quota && page <= r.p.cfg.PageCeiling; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		listing, err := list(ctx, page)
		if err != nil {
			if isFatal(ctx, err) {
				return fmt.Errorf("list %s page %d: %w", source, page, err)
			}
			r.logger.Warn().Err(err).Str("source", source).Int("page", page).
				Msg("Listing page failed, moving on")
			return nil
		}
		r.report.Pages++
		if listing == nil || len(listing.Results) == 0 {
			return nil
		}

		var fresh []int
		onPage := make(map[int]struct{}, len(listing.Results))
		for i := range listing.Results {
			id := listing.Results[i].ID
			if _, dup := r.seen[id]; dup {
				continue
			}
			if _, dup := onPage[id]; dup {
				continue
			}
			onPage[id] = struct{}{}
			fresh = append(fresh, id)
		}

		// Only fetch what the quota still needs; refill from the page when
		// some of those fail. Ids are marked seen once attempted.
		for len(fresh) > 0 && len(r.items) < quota {
			n := min(quota-len(r.items), len(fresh))
			chunk := fresh[:n]
			fresh = fresh[n:]
			for _, id := range chunk {
				r.seen[id] = struct{}{}
			}

			built, err := r.p.build(ctx, chunk)
			if err != nil {
				return err
			}
			for _, item := range built {
				if item == nil {
					r.report.Failed++
					continue
				}
				r.items = append(r.items, *item)
			}
		}

		if listing.TotalPages > 0 && page >= listing.TotalPages {
			return nil
		}
	}
	return nil
}

// build fetches and encodes ids concurrently. The result has one slot per
// id, nil where the item failed. Only context cancellation is returned as
// an error.
func (p *Pipeline) build(ctx context.Context, ids []int) ([]*catalog.Item, error) {
	metas := make([]*models.Metadata, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			meta, err := p.provider.FetchDetail(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logging.Ctx(gctx).Warn().Err(err).Int("movie_id", id).Msg("Detail fetch failed, skipping")
				return nil
			}
			metas[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors, err := p.encode(ctx, metas)
	if err != nil {
		return nil, err
	}

	out := make([]*catalog.Item, len(ids))
	for i, meta := range metas {
		if meta == nil || vectors[i] == nil {
			continue
		}
		out[i] = &catalog.Item{ID: meta.ID, Vector: vectors[i], Metadata: *meta}
	}
	return out, nil
}

// encode embeds every non-nil metadata. Failed slots stay nil.
func (p *Pipeline) encode(ctx context.Context, metas []*models.Metadata) ([][]float32, error) {
	vectors := make([][]float32, len(metas))

	var pending []int
	for i, m := range metas {
		if m != nil {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return vectors, nil
	}

	batcher, canBatch := p.enc.(encoder.BatchEncoder)
	size := 1
	if canBatch {
		size = p.cfg.BatchSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FetchConcurrency)
	for start := 0; start < len(pending); start += size {
		batch := pending[start:min(start+size, len(pending))]
		g.Go(func() error {
			var (
				out [][]float32
				err error
			)
			if canBatch {
				texts := make([]string, len(batch))
				for j, idx := range batch {
					texts[j] = metas[idx].EmbeddingText()
				}
				out, err = batcher.EmbedBatch(gctx, texts)
			} else {
				var v []float32
				v, err = p.enc.Embed(gctx, metas[batch[0]].EmbeddingText())
				out = [][]float32{v}
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logging.Ctx(gctx).Warn().Err(err).Int("batch", len(batch)).Msg("Encoding failed, skipping batch")
				return nil
			}
			if len(out) != len(batch) {
				logging.Ctx(gctx).Warn().Int("batch", len(batch)).Int("vectors", len(out)).
					Msg("Encoder returned the wrong number of vectors, skipping batch")
				return nil
			}
			for j, idx := range batch {
				v, err := p.checkVector(out[j])
				if err != nil {
					logging.Ctx(gctx).Warn().Err(err).Int("movie_id", metas[idx].ID).Msg("Rejected embedding")
					continue
				}
				vectors[idx] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// checkVector enforces the encoder dimension and unit length.
func (p *Pipeline) checkVector(v []float32) ([]float32, error) {
	if dim := p.enc.Dimension(); dim > 0 && len(v) != dim {
		return nil, fmt.Errorf("%w: got %d, want %d", encoder.ErrDimensionMismatch, len(v), dim)
	}
	return encoder.Normalize(v)
}

// EnsureItem makes sure id is cataloged, fetching, encoding and committing
// it when missing. A returned error wraps ErrPartialIngestion; the caller
// skips the id and does not retry it in the same request.
func (p *Pipeline) EnsureItem(ctx context.Context, id int, c Committer) error {
	if c.Contains(id) {
		return nil
	}

	start := time.Now()
	built, err := p.build(ctx, []int{id})
	if err != nil {
		metrics.RecordIngest("incremental", 0, 1, time.Since(start))
		return fmt.Errorf("%w: movie %d: %w", ErrPartialIngestion, id, err)
	}
	if built[0] == nil {
		metrics.RecordIngest("incremental", 0, 1, time.Since(start))
		return fmt.Errorf("%w: movie %d could not be fetched or encoded", ErrPartialIngestion, id)
	}

	if err := c.Commit(ctx, *built[0]); err != nil {
		if errors.Is(err, catalog.ErrDuplicateID) {
			// another request committed it first
			return nil
		}
		metrics.RecordIngest("incremental", 0, 1, time.Since(start))
		return fmt.Errorf("%w: commit movie %d: %w", ErrPartialIngestion, id, err)
	}

	metrics.RecordIngest("incremental", 1, 0, time.Since(start))
	logging.Ctx(ctx).Info().Int("movie_id", id).Str("title", built[0].Metadata.Title).
		Msg("Movie added to catalog")
	return nil
}

// isFatal reports whether a listing error must abort the whole run.
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, breaker.ErrOpen)
}
