// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector reclaims space in an on-disk store.
type GarbageCollector interface {
	RunGC() error
}

// CacheGCService runs value log garbage collection on the detail cache at
// a fixed interval.
type CacheGCService struct {
	cache    GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCacheGCService creates the service. interval defaults to 10 minutes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCacheGCService(cache GarbageCollector, interval time.Duration, logger zerolog.Logger) *CacheGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheGCService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "detail-cache-gc").Logger(),
		name:     "detail-cache-gc",
	}
}

// Serve implements suture.Service.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.cache.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("Detail cache GC failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Detail cache GC complete")
		}
	}
}

func (s *CacheGCService) String() string {
	return s.name
}
