// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package detailcache keeps TMDB movie details in BadgerDB so that repeated
// catalog initializations do not refetch thousands of detail pages.
//
// Cache wraps a tmdb.API and only intercepts FetchDetail; every other call
// goes straight through. Entries expire after the configured TTL using
// Badger's native per-key TTL.
package detailcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelscope/internal/metrics"
	"github.com/tomtom215/reelscope/internal/models"
	"github.com/tomtom215/reelscope/internal/tmdb"
)

const keyPrefix = "detail:"

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("detail cache is closed")

// Config configures the cache database.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// TTL bounds how long a detail stays cached. Zero disables expiry.
	TTL time.Duration

	// InMemory runs Badger without touching disk (tests).
	InMemory bool
}

// Cache is a read-through tmdb.API decorator.
type Cache struct {
	tmdb.API

	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
	closed atomic.Bool
}

var _ tmdb.API = (*Cache)(nil)

// Open opens (or creates) the cache database and wraps upstream.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg Config, upstream tmdb.API, logger zerolog.Logger) (*Cache, error) {
	if upstream == nil {
		return nil, errors.New("detail cache requires an upstream API")
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("detail cache path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Compression = options.Snappy
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	c := &Cache{
		API:    upstream,
		db:     db,
		ttl:    cfg.TTL,
		logger: logger.With().Str("component", "detailcache").Logger(),
	}
	c.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("ttl", cfg.TTL).
		Msg("Detail cache opened")
	return c, nil
}

func key(id int) []byte {
	return []byte(keyPrefix + strconv.Itoa(id))
}

// FetchDetail returns the cached detail for id, falling back to upstream and
// storing the result. Cache read/write failures degrade to a plain upstream
// call; upstream errors are never cached.
func (c *Cache) FetchDetail(ctx context.Context, id int) (*models.Metadata, error) {
	if c.closed.Load() {
		return c.API.FetchDetail(ctx, id)
	}

	if meta, ok := c.get(id); ok {
		metrics.DetailCacheHits.Inc()
		return meta, nil
	}
	metrics.DetailCacheMisses.Inc()

	meta, err := c.API.FetchDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.put(meta); err != nil {
		c.logger.Warn().Err(err).Int("movie_id", id).Msg("Failed to cache movie detail")
	}
	return meta, nil
}

func (c *Cache) get(id int) (*models.Metadata, bool) {
	var meta models.Metadata
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Int("movie_id", id).Msg("Detail cache read failed")
		}
		return nil, false
	}
	return &meta, true
}

func (c *Cache) put(meta *models.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(meta.ID), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Invalidate drops a cached detail.
func (c *Cache) Invalidate(id int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

// Len counts live cached details.
func (c *Cache) Len() (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// RunGC reclaims value log space left by expired entries.
func (c *Cache) RunGC() error {
	if c.closed.Load() {
		return ErrClosed
	}
	for {
		err := c.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. Later FetchDetail calls bypass the cache.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	c.logger.Info().Msg("Detail cache closed")
	return nil
}
