// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/reelscope/internal/catalog"
	"github.com/tomtom215/reelscope/internal/index"
	"github.com/tomtom215/reelscope/internal/logging"
	"github.com/tomtom215/reelscope/internal/metrics"
	"github.com/tomtom215/reelscope/internal/pipeline"
	"github.com/tomtom215/reelscope/internal/snapshot"
)

// Contains reports whether id is cataloged.
func (e *Engine) Contains(id int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.store.IndexOf(id)
	return ok
}

// Commit appends one item to the store and the index and persists the
// result, all under the write lock. A failed save is logged; the item stays
// in memory and is written with the next successful save.
func (e *Engine) Commit(ctx context.Context, item catalog.Item) error {
	e.initMu.RLock()
	defer e.initMu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(item.Vector) != e.config.Dimension {
		return fmt.Errorf("%w: got %d, want %d", catalog.ErrDimensionMismatch, len(item.Vector), e.config.Dimension)
	}
	if _, err := e.store.Append(item.ID, item.Vector, item.Metadata); err != nil {
		return err
	}
	if err := e.index.Add(item.Vector); err != nil {
		// unreachable while store and index agree on the dimension
		return fmt.Errorf("index add: %w", err)
	}
	e.generation++
	metrics.SetCatalog(e.store.Len(), e.generation)

	if err := e.persistLocked(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("movie_id", item.ID).
			Msg("Failed to persist catalog after append")
	}
	return nil
}

// persistLocked saves the current catalog. Must be called with mu held.
func (e *Engine) persistLocked(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	snap := e.store.Snapshot()
	return e.save(ctx, &snapshot.Data{
		Generation: e.generation,
		IDs:        snap.IDs,
		Vectors:    snap.Vectors,
		Metadata:   snap.Metadata,
	})
}

func (e *Engine) save(ctx context.Context, d *snapshot.Data) error {
	start := time.Now()
	err := e.snapshots.Save(ctx, d)
	metrics.RecordSnapshot("save", time.Since(start), err)
	return err
}

// InitializeCatalog replaces the catalog with targetCount freshly fetched
// movies. On any error the current catalog, in memory and on disk, is kept.
func (e *Engine) InitializeCatalog(ctx context.Context, targetCount int) (pipeline.IngestReport, error) {
	if targetCount < e.config.MinInitialize || targetCount > e.config.MaxInitialize {
		return pipeline.IngestReport{}, fmt.Errorf("%w: num_movies must be in [%d, %d], got %d",
			ErrInvalidRequest, e.config.MinInitialize, e.config.MaxInitialize, targetCount)
	}
	if e.pipeline == nil {
		return pipeline.IngestReport{}, errors.New("catalog initialization is not configured")
	}
	if !e.initMu.TryLock() {
		return pipeline.IngestReport{}, ErrInitInProgress
	}
	defer e.initMu.Unlock()

	e.initializing.Store(true)
	defer e.initializing.Store(false)

	items, report, err := e.pipeline.Initialize(ctx, targetCount)
	if err != nil {
		return report, fmt.Errorf("initialize catalog: %w", err)
	}

	store := catalog.NewStore(e.config.Dimension)
	if err := store.BulkReplace(items); err != nil {
		return report, fmt.Errorf("build catalog: %w", err)
	}
	snap := store.Snapshot()
	idx := index.NewFlat(e.config.Dimension)
	if err := idx.Rebuild(snap.Vectors); err != nil {
		return report, fmt.Errorf("build index: %w", err)
	}

	// initMu keeps every other writer out, so the generation read here
	// is still current at swap time.
	e.mu.RLock()
	next := e.generation + 1
	e.mu.RUnlock()

	if e.snapshots != nil {
		err := e.save(ctx, &snapshot.Data{
			Generation: next,
			IDs:        snap.IDs,
			Vectors:    snap.Vectors,
			Metadata:   snap.Metadata,
		})
		if err != nil {
			return report, fmt.Errorf("persist catalog: %w", err)
		}
	}

	e.mu.Lock()
	e.store, e.index, e.generation = store, idx, next
	e.lastInitializedAt = time.Now()
	e.lastIngest = &report
	e.loadErr = nil
	e.mu.Unlock()

	metrics.SetCatalog(store.Len(), next)
	e.logger.Info().
		Str("run_id", report.RunID).
		Int("items", store.Len()).
		Uint64("generation", next).
		Msg("Catalog installed")
	return report, nil
}

// Load installs the persisted catalog. A missing snapshot leaves the engine
// empty and is not an error. An inconsistent or foreign-dimension snapshot
// is refused: the current catalog is kept and the error is returned and
// reported in Status.
func (e *Engine) Load(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}

	e.initMu.Lock()
	defer e.initMu.Unlock()

	start := time.Now()
	data, err := e.snapshots.Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		metrics.RecordSnapshot("load", time.Since(start), nil)
		e.logger.Info().Str("dir", e.snapshots.Dir()).Msg("No catalog snapshot, starting empty")
		return nil
	}
	if err == nil && len(data.Vectors) > 0 && len(data.Vectors[0]) != e.config.Dimension {
		err = fmt.Errorf("%w: snapshot dimension %d, encoder dimension %d",
			snapshot.ErrInconsistent, len(data.Vectors[0]), e.config.Dimension)
	}

	var (
		store *catalog.Store
		idx   *index.Flat
	)
	if err == nil {
		store = catalog.NewStore(e.config.Dimension)
		err = store.Restore(catalog.Snapshot{IDs: data.IDs, Vectors: data.Vectors, Metadata: data.Metadata})
	}
	if err == nil {
		idx = index.NewFlat(e.config.Dimension)
		err = idx.Rebuild(data.Vectors)
	}
	metrics.RecordSnapshot("load", time.Since(start), err)

	if err != nil {
		e.mu.Lock()
		e.loadErr = err
		e.mu.Unlock()
		e.logger.Error().Err(err).Str("dir", e.snapshots.Dir()).Msg("Catalog snapshot rejected")
		return fmt.Errorf("load catalog: %w", err)
	}

	e.mu.Lock()
	e.store, e.index, e.generation = store, idx, data.Generation
	e.loadErr = nil
	if e.lastInitializedAt.IsZero() {
		e.lastInitializedAt = data.SavedAt
	}
	e.mu.Unlock()

	metrics.SetCatalog(store.Len(), data.Generation)
	e.logger.Info().
		Int("items", store.Len()).
		Uint64("generation", data.Generation).
		Dur("duration", time.Since(start)).
		Msg("Catalog snapshot loaded")
	return nil
}
