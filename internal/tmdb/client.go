// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

/*
Package tmdb is a client for The Movie Database (TMDB) v3 REST API.

It is the catalog's metadata provider: movie details (with keywords and
credits folded in), the popular and top-rated listings used to seed the
catalog, and the search, discover, genre and person endpoints exposed by the
HTTP API.

Authentication uses a v4 read access token sent as a Bearer header. All
requests carry a language parameter (default fr-FR) so titles, overviews and
genre names come back localized.

API Reference: https://developer.themoviedb.org/reference/intro/getting-started
*/
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelscope/internal/models"
)

// ErrNotFound is returned when TMDB answers 404.
var ErrNotFound = errors.New("tmdb: not found")

// TopCastSize is how many billed cast members are kept per movie.
const TopCastSize = 5

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration

	// RequestsPerSecond caps outgoing request rate; Burst sizes the bucket.
	RequestsPerSecond float64
	Burst             int

	// MaxRetries on HTTP 429; RetryDelay is the first backoff step.
	MaxRetries int
	RetryDelay time.Duration
}

// Client talks to TMDB. It is safe for concurrent use.
type Client struct {
	apiKey         string
	baseURL        string
	imageBaseURL   string
	language       string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	baseRetryDelay time.Duration
	logger         zerolog.Logger

	genreMu    sync.Mutex
	genreNames map[int]string
}

// NewClient returns a client for cfg.
//
//nolint:gocritic // config and logger are copied once at construction
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 40
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		imageBaseURL:   strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		language:       cfg.Language,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:     cfg.MaxRetries,
		baseRetryDelay: cfg.RetryDelay,
		logger:         logger.With().Str("component", "tmdb").Logger(),
	}
}

type namedEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type movieResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	Popularity  *float64 `json:"popularity"`
	GenreIDs    []int    `json:"genre_ids"`
	Character   string   `json:"character"`
}

type listResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []movieResult `json:"results"`
}

type detailResponse struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Overview    string       `json:"overview"`
	PosterPath  string       `json:"poster_path"`
	ReleaseDate string       `json:"release_date"`
	VoteAverage *float64     `json:"vote_average"`
	Popularity  *float64     `json:"popularity"`
	Runtime     *int         `json:"runtime"`
	Genres      []namedEntry `json:"genres"`
	Keywords    struct {
		Keywords []namedEntry `json:"keywords"`
	} `json:"keywords"`
	Credits struct {
		Cast []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// FetchDetail returns full metadata for one movie: details, keywords, the
// top billed cast and the first credited director, in a single request.
func (c *Client) FetchDetail(ctx context.Context, id int) (*models.Metadata, error) {
	var d detailResponse
	q := url.Values{"append_to_response": {"keywords,credits"}}
	if err := c.getJSON(ctx, "/movie/"+strconv.Itoa(id), q, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		d.ID = id
	}

	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}
	keywords := make([]string, 0, len(d.Keywords.Keywords))
	for _, k := range d.Keywords.Keywords {
		keywords = append(keywords, k.Name)
	}

	cast := make([]string, 0, TopCastSize)
	for _, member := range d.Credits.Cast {
		if len(cast) == TopCastSize {
			break
		}
		cast = append(cast, member.Name)
	}
	var director string
	for _, crew := range d.Credits.Crew {
		if crew.Job == "Director" {
			director = crew.Name
			break
		}
	}

	return &models.Metadata{
		ID:             d.ID,
		Title:          d.Title,
		Overview:       d.Overview,
		PosterURL:      c.imageURL(d.PosterPath),
		ReleaseDate:    d.ReleaseDate,
		VoteAverage:    d.VoteAverage,
		Genres:         RefineGenres(genres, keywords),
		Keywords:       keywords,
		Cast:           cast,
		Director:       director,
		RuntimeMinutes: d.Runtime,
		Popularity:     d.Popularity,
	}, nil
}

// ListPopular returns one page of the popular listing.
func (c *Client) ListPopular(ctx context.Context, page int) (*models.Page, error) {
	return c.list(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(page)}})
}

// ListTopRated returns one page of the top-rated listing.
func (c *Client) ListTopRated(ctx context.Context, page int) (*models.Page, error) {
	return c.list(ctx, "/movie/top_rated", url.Values{"page": {strconv.Itoa(page)}})
}

// Search finds movies by title.
func (c *Client) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	return c.list(ctx, "/search/movie", url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	})
}

// DiscoverOptions narrows a discover query.
type DiscoverOptions struct {
	SortBy       string
	GenreID      string
	MinVoteCount int
	Page         int
}

// Discover runs /discover/movie. GenreID may be a TMDB genre id or one of
// the virtual sub-genre ids returned by Genres.
func (c *Client) Discover(ctx context.Context, opts DiscoverOptions) (*models.Page, error) {
	if opts.SortBy == "" {
		opts.SortBy = "vote_average.desc"
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	q := url.Values{
		"sort_by":        {opts.SortBy},
		"vote_count.gte": {strconv.Itoa(opts.MinVoteCount)},
		"page":           {strconv.Itoa(opts.Page)},
		"include_adult":  {"false"},
	}
	if opts.GenreID != "" {
		if v, ok := virtualGenreQuery[opts.GenreID]; ok {
			// TMDB treats comma as AND for with_genres.
			q.Set("with_genres", strings.Join(v.withGenres, ","))
			if v.withKeyword != "" {
				q.Set("with_keywords", v.withKeyword)
			}
		} else {
			q.Set("with_genres", opts.GenreID)
		}
	}
	return c.list(ctx, "/discover/movie", q)
}

// Person is a search hit from /search/person.
type Person struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	ProfileURL         string `json:"profile_url,omitempty"`
	KnownForDepartment string `json:"known_for_department,omitempty"`
}

// SearchPerson finds actors, directors and crew by name.
func (c *Client) SearchPerson(ctx context.Context, query string) ([]Person, error) {
	var resp struct {
		Results []struct {
			ID                 int    `json:"id"`
			Name               string `json:"name"`
			ProfilePath        string `json:"profile_path"`
			KnownForDepartment string `json:"known_for_department"`
		} `json:"results"`
	}
	q := url.Values{"query": {query}, "page": {"1"}, "include_adult": {"false"}}
	if err := c.getJSON(ctx, "/search/person", q, &resp); err != nil {
		return nil, err
	}

	people := make([]Person, 0, len(resp.Results))
	for _, p := range resp.Results {
		people = append(people, Person{
			ID:                 p.ID,
			Name:               p.Name,
			ProfileURL:         c.imageURL(p.ProfilePath),
			KnownForDepartment: p.KnownForDepartment,
		})
	}
	return people, nil
}

// PersonCredit is one acting credit.
type PersonCredit struct {
	models.Summary
	Character string `json:"character,omitempty"`
}

// PersonMovieCredits lists a person's acting credits, best rated first.
func (c *Client) PersonMovieCredits(ctx context.Context, personID int) ([]PersonCredit, error) {
	var resp struct {
		Cast []movieResult `json:"cast"`
	}
	if err := c.getJSON(ctx, "/person/"+strconv.Itoa(personID)+"/movie_credits", nil, &resp); err != nil {
		return nil, err
	}

	names := c.genreLookup(ctx)
	credits := make([]PersonCredit, 0, len(resp.Cast))
	for i := range resp.Cast {
		credits = append(credits, PersonCredit{
			Summary:   c.summary(&resp.Cast[i], names),
			Character: resp.Cast[i].Character,
		})
	}
	sortByRating(credits)
	return credits, nil
}

func (c *Client) list(ctx context.Context, path string, q url.Values) (*models.Page, error) {
	var resp listResponse
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}

	names := c.genreLookup(ctx)
	page := &models.Page{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Results:    make([]models.Summary, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		page.Results = append(page.Results, c.summary(&resp.Results[i], names))
	}
	return page, nil
}

func (c *Client) summary(r *movieResult, genreNames map[int]string) models.Summary {
	s := models.Summary{
		ID:          r.ID,
		Title:       r.Title,
		Overview:    r.Overview,
		PosterURL:   c.imageURL(r.PosterPath),
		ReleaseDate: r.ReleaseDate,
		VoteAverage: r.VoteAverage,
		Popularity:  r.Popularity,
	}
	for _, gid := range r.GenreIDs {
		if name, ok := genreNames[gid]; ok {
			s.Genres = append(s.Genres, name)
		}
	}
	return s
}

func (c *Client) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + path
}

func sortByRating(credits []PersonCredit) {
	sort.SliceStable(credits, func(i, j int) bool {
		return ratingOf(&credits[i].Summary) > ratingOf(&credits[j].Summary)
	})
}

func ratingOf(s *models.Summary) float64 {
	if s.VoteAverage == nil {
		return 0
	}
	return *s.VoteAverage
}

// Ping checks credentials against /configuration.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]interface{}
	if err := c.getJSON(ctx, "/configuration", nil, &out); err != nil {
		return fmt.Errorf("tmdb ping: %w", err)
	}
	return nil
}
