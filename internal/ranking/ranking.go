// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package ranking computes average-rating rankings over the catalog.
//
// The ranker is a pure read-only query over the catalog snapshot it is given:
// no caching, no incremental maintenance, every call recomputes from scratch.
package ranking

import (
	"math"
	"sort"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Catalog is the slice of the catalog store the ranker reads.
type Catalog interface {
	// Movies returns all catalog movies in insertion order.
	Movies() []*catalog.Movie
}

// Ranker produces globally ranked movie lists by average rating.
type Ranker struct {
	catalog Catalog
}

// New creates a ranker over the given catalog.
func New(c Catalog) *Ranker {
	return &Ranker{catalog: c}
}

// Average returns the arithmetic mean of all ratings currently indexed under
// the movie. A movie with zero ratings has no defined average; NaN is
// returned and callers must treat such movies as rank-indeterminate (TopN
// ranks them lowest).
func Average(m *catalog.Movie) float64 {
	if len(m.UserRatings) == 0 {
		return math.NaN()
	}

	sum := 0
	for _, r := range m.UserRatings {
		sum += r.Value
	}
	return float64(sum) / float64(len(m.UserRatings))
}

// TopN returns the catalog's movies ranked descending by average rating,
// truncated to the first n (or all, if fewer exist). Non-positive n yields
// an empty slice. The sort is stable with respect to catalog insertion
// order, so movies with equal averages keep their relative order and the
// output is deterministic. Zero-rating movies rank below every rated movie.
func (r *Ranker) TopN(n int) []*catalog.Movie {
	if n < 0 {
		n = 0
	}

	movies := r.catalog.Movies()
	SortByAverage(movies)

	if n < len(movies) {
		movies = movies[:n]
	}
	return movies
}

// SortByAverage stably sorts movies in place, descending by average rating.
// The input order is the tie-break, so callers pass movies in insertion
// order for the documented deterministic ordering. Zero-rating movies
// (NaN average) sort last.
func SortByAverage(movies []*catalog.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		return sortScore(movies[i]) > sortScore(movies[j])
	})
}

// sortScore maps a movie to its comparable rank score, folding the undefined
// average of a zero-rating movie to the bottom of the order.
func sortScore(m *catalog.Movie) float64 {
	avg := Average(m)
	if math.IsNaN(avg) {
		return math.Inf(-1)
	}
	return avg
}
