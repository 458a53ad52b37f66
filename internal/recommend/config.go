// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package recommend

import "fmt"

// Config holds engine limits.
type Config struct {
	// Dimension is the embedding dimension. Snapshots with any other
	// dimension are refused.
	Dimension int `json:"dimension"`

	// DefaultTopK applies when a request leaves TopK at zero.
	DefaultTopK int `json:"default_top_k"`

	// MaxTopK is the largest TopK a request may ask for.
	MaxTopK int `json:"max_top_k"`

	// OverfetchFactor multiplies TopK for the first search so that
	// filtering has candidates to discard.
	OverfetchFactor int `json:"overfetch_factor"`

	// MinInitialize and MaxInitialize bound InitializeCatalog's target.
	MinInitialize int `json:"min_initialize"`
	MaxInitialize int `json:"max_initialize"`
}

// DefaultConfig returns the standard limits for a 384-dimension encoder.
func DefaultConfig() *Config {
	return &Config{
		Dimension:       384,
		DefaultTopK:     10,
		MaxTopK:         50,
		OverfetchFactor: 2,
		MinInitialize:   100,
		MaxInitialize:   10000,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Dimension < 1 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.MaxTopK < 1 {
		return fmt.Errorf("max_top_k must be positive, got %d", c.MaxTopK)
	}
	if c.DefaultTopK < 1 || c.DefaultTopK > c.MaxTopK {
		return fmt.Errorf("default_top_k must be in [1, %d], got %d", c.MaxTopK, c.DefaultTopK)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be positive, got %d", c.OverfetchFactor)
	}
	if c.MinInitialize < 1 || c.MaxInitialize < c.MinInitialize {
		return fmt.Errorf("initialize bounds invalid: [%d, %d]", c.MinInitialize, c.MaxInitialize)
	}
	return nil
}
