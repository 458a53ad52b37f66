// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package encoder

import (
	"context"
	"errors"

	"github.com/tomtom215/reelscope/internal/breaker"
)

// CircuitBreakerEncoder wraps a BatchEncoder with a circuit breaker.
// Invalid vectors (wrong dimension, zero norm) do not count as failures.
type CircuitBreakerEncoder struct {
	enc BatchEncoder
	cb  *breaker.Breaker
}

var _ BatchEncoder = (*CircuitBreakerEncoder)(nil)

// NewCircuitBreakerEncoder wraps enc.
func NewCircuitBreakerEncoder(enc BatchEncoder) *CircuitBreakerEncoder {
	return &CircuitBreakerEncoder{
		enc: enc,
		cb: breaker.New(breaker.Settings{
			Name: "embedding-server",
			IsSuccessful: func(err error) bool {
				return errors.Is(err, ErrDimensionMismatch) || errors.Is(err, ErrZeroVector) ||
					errors.Is(err, context.Canceled)
			},
		}),
	}
}

// State returns the breaker state for status reporting.
func (c *CircuitBreakerEncoder) State() string { return c.cb.State() }

func (c *CircuitBreakerEncoder) Dimension() int { return c.enc.Dimension() }

func (c *CircuitBreakerEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	return breaker.Do(c.cb, func() ([]float32, error) { return c.enc.Embed(ctx, text) })
}

func (c *CircuitBreakerEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return breaker.Do(c.cb, func() ([][]float32, error) { return c.enc.EmbedBatch(ctx, texts) })
}
