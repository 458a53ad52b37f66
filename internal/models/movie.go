// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package models

import "strings"

// Metadata describes one catalog movie. Optional numeric fields are pointers;
// callers that need a number treat a nil value as 0.
type Metadata struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Overview       string   `json:"overview,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	VoteAverage    *float64 `json:"vote_average,omitempty"`
	Genres         []string `json:"genres"`
	Keywords       []string `json:"keywords,omitempty"`
	Cast           []string `json:"cast,omitempty"`
	Director       string   `json:"director,omitempty"`
	RuntimeMinutes *int     `json:"runtime,omitempty"`
	Popularity     *float64 `json:"popularity,omitempty"`
}

// Rating returns the vote average, or 0 when unknown.
func (m *Metadata) Rating() float64 {
	if m.VoteAverage == nil {
		return 0
	}
	return *m.VoteAverage
}

// Runtime returns the runtime in minutes, or 0 when unknown.
func (m *Metadata) Runtime() int {
	if m.RuntimeMinutes == nil {
		return 0
	}
	return *m.RuntimeMinutes
}

// Clone returns a deep copy.
func (m *Metadata) Clone() Metadata {
	c := *m
	c.Genres = cloneStrings(m.Genres)
	c.Keywords = cloneStrings(m.Keywords)
	c.Cast = cloneStrings(m.Cast)
	if m.VoteAverage != nil {
		v := *m.VoteAverage
		c.VoteAverage = &v
	}
	if m.RuntimeMinutes != nil {
		v := *m.RuntimeMinutes
		c.RuntimeMinutes = &v
	}
	if m.Popularity != nil {
		v := *m.Popularity
		c.Popularity = &v
	}
	return c
}

// EmbeddingText renders the text the encoder sees for this movie. The field
// order is fixed: vectors produced from different orderings are not comparable.
func (m *Metadata) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(m.Title)
	b.WriteString("\nGenres: ")
	b.WriteString(strings.Join(m.Genres, ", "))
	b.WriteString("\nOverview: ")
	b.WriteString(m.Overview)
	b.WriteString("\nKeywords: ")
	b.WriteString(strings.Join(m.Keywords, ", "))
	b.WriteString("\nCast: ")
	b.WriteString(strings.Join(m.Cast, ", "))
	b.WriteString("\nDirector: ")
	b.WriteString(m.Director)
	return b.String()
}

// Summary is a lightweight listing entry (popular/top rated/search pages).
type Summary struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
	Genres      []string `json:"genres"`
}

// Page is one page of a listing.
type Page struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Results    []Summary `json:"results"`
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
