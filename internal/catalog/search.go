// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

import (
	"regexp"
	"strings"
)

// titleQualifier matches a parenthesized qualifier in a title, typically the
// year: "Richard III (1995)" -> "Richard III".
var titleQualifier = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// SearchMovies returns all movies whose title starts with prefix,
// case-insensitively, in catalog insertion order.
func (s *Store) SearchMovies(prefix string) []*Movie {
	lower := strings.ToLower(prefix)

	matches := make([]*Movie, 0)
	for _, movie := range s.Movies() {
		if strings.HasPrefix(strings.ToLower(movie.Title), lower) {
			matches = append(matches, movie)
		}
	}
	return matches
}

// UniqueMovie reports whether no catalog movie already carries this title and
// release year. Titles are compared case-insensitively with any parenthesized
// qualifier stripped, so "Toy Story (1995)" and "Toy Story" collide for the
// same year.
func (s *Store) UniqueMovie(title string, year int) bool {
	want := strings.ToLower(titleQualifier.ReplaceAllString(title, ""))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, movie := range s.movies {
		have := strings.ToLower(titleQualifier.ReplaceAllString(movie.Title, ""))
		if have == want && movie.Year == year {
			return false
		}
	}
	return true
}
