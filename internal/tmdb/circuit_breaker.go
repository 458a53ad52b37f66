// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package tmdb

import (
	"context"

	"github.com/tomtom215/reelscope/internal/breaker"
	"github.com/tomtom215/reelscope/internal/models"
)

// API is the full TMDB surface used by the application. Client,
// CircuitBreakerClient and the detail cache all implement it.
type API interface {
	FetchDetail(ctx context.Context, id int) (*models.Metadata, error)
	ListPopular(ctx context.Context, page int) (*models.Page, error)
	ListTopRated(ctx context.Context, page int) (*models.Page, error)
	Search(ctx context.Context, query string, page int) (*models.Page, error)
	Discover(ctx context.Context, opts DiscoverOptions) (*models.Page, error)
	Genres(ctx context.Context) ([]Genre, error)
	SearchPerson(ctx context.Context, query string) ([]Person, error)
	PersonMovieCredits(ctx context.Context, personID int) ([]PersonCredit, error)
	Ping(ctx context.Context) error
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)

// CircuitBreakerClient wraps an API with a circuit breaker so a failing TMDB
// does not stall every catalog and recommendation request. A 404 or a
// cancelled request counts as a success for tripping purposes.
type CircuitBreakerClient struct {
	api API
	cb  *breaker.Breaker
}

// NewCircuitBreakerClient wraps api.
func NewCircuitBreakerClient(api API) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		api: api,
		cb: breaker.New(breaker.Settings{
			Name:         "tmdb-api",
			IsSuccessful: func(err error) bool { return !IsRetryable(err) },
		}),
	}
}

// State returns the breaker state for status reporting.
func (c *CircuitBreakerClient) State() string { return c.cb.State() }

func (c *CircuitBreakerClient) FetchDetail(ctx context.Context, id int) (*models.Metadata, error) {
	return breaker.Do(c.cb, func() (*models.Metadata, error) { return c.api.FetchDetail(ctx, id) })
}

func (c *CircuitBreakerClient) ListPopular(ctx context.Context, page int) (*models.Page, error) {
	return breaker.Do(c.cb, func() (*models.Page, error) { return c.api.ListPopular(ctx, page) })
}

func (c *CircuitBreakerClient) ListTopRated(ctx context.Context, page int) (*models.Page, error) {
	return breaker.Do(c.cb, func() (*models.Page, error) { return c.api.ListTopRated(ctx, page) })
}

func (c *CircuitBreakerClient) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	return breaker.Do(c.cb, func() (*models.Page, error) { return c.api.Search(ctx, query, page) })
}

func (c *CircuitBreakerClient) Discover(ctx context.Context, opts DiscoverOptions) (*models.Page, error) {
	return breaker.Do(c.cb, func() (*models.Page, error) { return c.api.Discover(ctx, opts) })
}

func (c *CircuitBreakerClient) Genres(ctx context.Context) ([]Genre, error) {
	return breaker.Do(c.cb, func() ([]Genre, error) { return c.api.Genres(ctx) })
}

func (c *CircuitBreakerClient) SearchPerson(ctx context.Context, query string) ([]Person, error) {
	return breaker.Do(c.cb, func() ([]Person, error) { return c.api.SearchPerson(ctx, query) })
}

func (c *CircuitBreakerClient) PersonMovieCredits(ctx context.Context, personID int) ([]PersonCredit, error) {
	return breaker.Do(c.cb, func() ([]PersonCredit, error) { return c.api.PersonMovieCredits(ctx, personID) })
}

func (c *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := breaker.Do(c.cb, func() (struct{}, error) { return struct{}{}, c.api.Ping(ctx) })
	return err
}
