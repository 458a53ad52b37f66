// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/reelscope/internal/logging"
)

const detailJSON = `{
  "id": 550,
  "title": "Fight Club",
  "overview": "Un employé de bureau insomniaque...",
  "poster_path": "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
  "release_date": "1999-10-15",
  "vote_average": 8.4,
  "popularity": 61.4,
  "runtime": 139,
  "genres": [{"id": 18, "name": "Drame"}],
  "keywords": {"keywords": [{"id": 825, "name": "support group"}, {"id": 851, "name": "dual identity"}]},
  "credits": {
    "cast": [
      {"name": "Edward Norton", "order": 0},
      {"name": "Brad Pitt", "order": 1},
      {"name": "Helena Bonham Carter", "order": 2},
      {"name": "Meat Loaf", "order": 3},
      {"name": "Jared Leto", "order": 4},
      {"name": "Zach Grenier", "order": 5}
    ],
    "crew": [
      {"name": "Jim Uhls", "job": "Screenplay"},
      {"name": "David Fincher", "job": "Director"},
      {"name": "Someone Else", "job": "Director"}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:            "token",
		BaseURL:           srv.URL,
		ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
		Language:          "fr-FR",
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxRetries:        2,
		RetryDelay:        time.Millisecond,
	}, logging.Nop())
}

func TestFetchDetail(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("language") != "fr-FR" || q.Get("append_to_response") != "keywords,credits" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(detailJSON))
	})

	m, err := c.FetchDetail(context.Background(), 550)
	if err != nil {
		t.Fatalf("FetchDetail() error = %v", err)
	}

	if m.Title != "Fight Club" || m.Director != "David Fincher" {
		t.Errorf("title/director = %q/%q", m.Title, m.Director)
	}
	if len(m.Cast) != TopCastSize || m.Cast[0] != "Edward Norton" || m.Cast[4] != "Jared Leto" {
		t.Errorf("Cast = %v", m.Cast)
	}
	if m.PosterURL != "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg" {
		t.Errorf("PosterURL = %s", m.PosterURL)
	}
	if m.Runtime() != 139 || m.Rating() != 8.4 {
		t.Errorf("runtime/rating = %d/%v", m.Runtime(), m.Rating())
	}
	if !reflect.DeepEqual(m.Keywords, []string{"support group", "dual identity"}) {
		t.Errorf("Keywords = %v", m.Keywords)
	}
}

func TestFetchDetailNotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	})

	_, err := c.FetchDetail(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}

func TestRetriesOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/genre/movie/list" {
			_, _ = w.Write([]byte(`{"genres":[]}`))
			return
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	})

	if _, err := c.ListPopular(context.Background(), 1); err != nil {
		t.Fatalf("ListPopular() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchDetail(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 StatusError", err)
	}
	if !IsRetryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestListResolvesGenreNames(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genre/movie/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comédie"}]}`))
		case "/movie/top_rated":
			if r.URL.Query().Get("page") != "2" {
				t.Errorf("page = %s", r.URL.Query().Get("page"))
			}
			_, _ = w.Write([]byte(`{"page":2,"total_pages":40,"results":[
				{"id":238,"title":"Le Parrain","genre_ids":[28,99],"poster_path":"/p.jpg","vote_average":8.7}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	page, err := c.ListTopRated(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 2 || page.TotalPages != 40 || len(page.Results) != 1 {
		t.Fatalf("page = %+v", page)
	}
	got := page.Results[0]
	if got.ID != 238 || !reflect.DeepEqual(got.Genres, []string{"Action"}) {
		t.Errorf("result = %+v", got)
	}
	if got.PosterURL != "https://image.tmdb.org/t/p/w500/p.jpg" {
		t.Errorf("PosterURL = %s", got.PosterURL)
	}
}

func TestDiscoverVirtualGenre(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/discover/movie" {
			q := r.URL.Query()
			if q.Get("with_genres") != "35" || q.Get("with_keywords") != "12248" {
				t.Errorf("query = %v", q)
			}
			if q.Get("sort_by") != "vote_average.desc" {
				t.Errorf("sort_by = %s", q.Get("sort_by"))
			}
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[],"genres":[]}`))
	})

	if _, err := c.Discover(context.Background(), DiscoverOptions{GenreID: "v_parody", MinVoteCount: 500}); err != nil {
		t.Fatal(err)
	}
}

func TestGenresInsertsVirtualAfterComedy(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comédie"},{"id":18,"name":"Drame"}]}`))
	})

	genres, err := c.Genres(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(genres) != 3+len(virtualGenres) {
		t.Fatalf("len = %d", len(genres))
	}
	if genres[1].Name != "Comédie" || genres[2].ID != "v_romcom" || genres[len(genres)-1].Name != "Drame" {
		t.Errorf("genres = %v", genres)
	}
}

func TestPersonMovieCreditsSorted(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/genre") {
			_, _ = w.Write([]byte(`{"genres":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"cast":[
			{"id":1,"title":"Low","vote_average":5.1,"character":"A"},
			{"id":2,"title":"High","vote_average":8.3,"character":"B"},
			{"id":3,"title":"Unknown"}
		]}`))
	})

	credits, err := c.PersonMovieCredits(context.Background(), 287)
	if err != nil {
		t.Fatal(err)
	}
	ids := []int{credits[0].ID, credits[1].ID, credits[2].ID}
	if !reflect.DeepEqual(ids, []int{2, 1, 3}) {
		t.Errorf("order = %v", ids)
	}
	if credits[0].Character != "B" {
		t.Errorf("Character = %s", credits[0].Character)
	}
}

func TestRefineGenres(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		genres   []string
		keywords []string
		want     []string
	}{
		{"no genres", nil, nil, []string{}},
		{"plain comedy", []string{"Comédie"}, nil, []string{"Comédie"}},
		{"dramedy wins over romance", []string{"Comédie", "Drame", "Romance"}, nil, []string{"Comédie Dramatique", "Romance"}},
		{"romcom", []string{"Comédie", "Romance"}, nil, []string{"Comédie Romantique"}},
		{"romcom keyword", []string{"Comédie"}, []string{"Romantic Comedy"}, []string{"Comédie Romantique"}},
		{"dark comedy", []string{"Comédie", "Crime"}, []string{"black comedy"}, []string{"Comédie Noire", "Crime"}},
		{"horror comedy", []string{"Horreur", "Comédie"}, nil, []string{"Comédie Horrifique"}},
		{"action comedy", []string{"Action", "Comédie", "Crime"}, nil, []string{"Action-Comédie", "Crime"}},
		{"parody", []string{"Comédie"}, []string{"spoof"}, []string{"Parodie"}},
		{"musical", []string{"Comédie", "Musique"}, nil, []string{"Comédie Musicale", "Musique"}},
		{"no comedy untouched", []string{"Drame", "Romance"}, []string{"romcom"}, []string{"Drame", "Romance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RefineGenres(tt.genres, tt.keywords); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RefineGenres() = %v, want %v", got, tt.want)
			}
		})
	}
}
