// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package tmdb

import (
	"context"
	"strconv"
	"strings"
)

// French genre names as returned by TMDB for language fr-FR.
const (
	genreComedy  = "Comédie"
	genreRomance = "Romance"
	genreDrama   = "Drame"
	genreHorror  = "Horreur"
	genreMusic   = "Musique"
	genreAction  = "Action"

	comedyGenreID = 35
)

// Refined comedy sub-genres.
const (
	Dramedy       = "Comédie Dramatique"
	RomCom        = "Comédie Romantique"
	DarkComedy    = "Comédie Noire"
	HorrorComedy  = "Comédie Horrifique"
	ActionComedy  = "Action-Comédie"
	Parody        = "Parodie"
	MusicalComedy = "Comédie Musicale"
)

// RefineGenres replaces the broad "Comédie" genre with a more precise
// sub-genre using the movie's other genres and keywords, and drops the
// genre that was folded into it (e.g. Romance for Comédie Romantique).
// Precedence: drama, romance, dark comedy, horror, action, parody, musical.
func RefineGenres(genres, keywords []string) []string {
	if len(genres) == 0 {
		return []string{}
	}

	kw := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		kw[strings.ToLower(k)] = struct{}{}
	}
	hasKW := func(words ...string) bool {
		for _, w := range words {
			if _, ok := kw[w]; ok {
				return true
			}
		}
		return false
	}
	has := make(map[string]bool, len(genres))
	for _, g := range genres {
		has[g] = true
	}

	comedy := genreComedy
	if has[genreComedy] {
		switch {
		case has[genreDrama]:
			comedy = Dramedy
		case has[genreRomance] || hasKW("romantic comedy", "romcom"):
			comedy = RomCom
		case hasKW("dark comedy", "black comedy"):
			comedy = DarkComedy
		case has[genreHorror] || hasKW("horror comedy"):
			comedy = HorrorComedy
		case has[genreAction]:
			comedy = ActionComedy
		case hasKW("parody", "spoof"):
			comedy = Parody
		case has[genreMusic]:
			comedy = MusicalComedy
		}
	}
	absorbed := map[string]string{
		Dramedy:      genreDrama,
		RomCom:       genreRomance,
		HorrorComedy: genreHorror,
		ActionComedy: genreAction,
	}[comedy]

	refined := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		name := g
		if g == genreComedy {
			name = comedy
		} else if absorbed != "" && g == absorbed {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		refined = append(refined, name)
	}
	return refined
}

// Genre is one entry of the genre list. Virtual sub-genres use string ids
// prefixed with "v_".
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type virtualGenre struct {
	id          string
	name        string
	withGenres  []string
	withKeyword string
}

var virtualGenres = []virtualGenre{
	{id: "v_romcom", name: RomCom, withGenres: []string{"35", "10749"}},
	{id: "v_dramady", name: Dramedy, withGenres: []string{"35", "18"}},
	{id: "v_action_comedy", name: ActionComedy, withGenres: []string{"35", "28"}},
	{id: "v_horror_comedy", name: HorrorComedy, withGenres: []string{"35", "27"}},
	{id: "v_musical_comedy", name: MusicalComedy, withGenres: []string{"35", "10402"}},
	{id: "v_dark_comedy", name: DarkComedy, withGenres: []string{"35"}, withKeyword: "9716"},
	{id: "v_parody", name: Parody, withGenres: []string{"35"}, withKeyword: "12248"},
}

var virtualGenreQuery = func() map[string]virtualGenre {
	m := make(map[string]virtualGenre, len(virtualGenres))
	for _, v := range virtualGenres {
		m[v.id] = v
	}
	return m
}()

// Genres returns TMDB's movie genres with the virtual comedy sub-genres
// inserted right after Comédie.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var resp struct {
		Genres []namedEntry `json:"genres"`
	}
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(resp.Genres))
	out := make([]Genre, 0, len(resp.Genres)+len(virtualGenres))
	for _, g := range resp.Genres {
		names[g.ID] = g.Name
		out = append(out, Genre{ID: strconv.Itoa(g.ID), Name: g.Name})
		if g.ID == comedyGenreID {
			for _, v := range virtualGenres {
				out = append(out, Genre{ID: v.id, Name: v.name})
			}
		}
	}

	c.genreMu.Lock()
	c.genreNames = names
	c.genreMu.Unlock()
	return out, nil
}

// genreLookup returns the cached genre id→name table, loading it on first
// use. A failed load yields an empty table so listings still work.
func (c *Client) genreLookup(ctx context.Context) map[int]string {
	c.genreMu.Lock()
	names := c.genreNames
	c.genreMu.Unlock()
	if names != nil {
		return names
	}

	if _, err := c.Genres(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("Genre list unavailable, listing without genre names")
		return map[int]string{}
	}
	c.genreMu.Lock()
	defer c.genreMu.Unlock()
	return c.genreNames
}
