// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package recommend

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/ranking"
)

// LikedThreshold is the rating value at and above which a rating counts as
// positive signal.
const LikedThreshold = 3

// Catalog is the slice of the catalog store the engine reads. The catalog
// Store satisfies it; tests can substitute a fixture.
type Catalog interface {
	UserByID(id int64) (*catalog.User, bool)
	MovieByID(id int64) (*catalog.Movie, bool)
	Movies() []*catalog.Movie
}

// Engine produces per-user recommendation lists with a neighbor-based
// heuristic. It is state-free: every call recomputes from the catalog's
// current snapshot, so results are idempotent between mutations.
type Engine struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewEngine creates a recommendation engine over the given catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(c Catalog, logger zerolog.Logger) *Engine {
	return &Engine{
		catalog: c,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommend returns movies for the user, ranked by average rating.
//
// The neighborhood heuristic: for each movie the target liked (rated at or
// above LikedThreshold), every other user who rated that movie at least as
// highly as the target qualifies as a candidate neighbor. The bar adapts to
// the target's own enthusiasm - a movie the target rated 5 only admits
// neighbors who rated it 5, while a 3 admits a broader neighborhood. Movies
// the neighbors liked that the target has not rated form the result set.
//
// An unknown user ID is an error (catalog.ErrUserNotFound). A user with no
// ratings, or whose liked movies attract no qualifying neighbor, gets an
// empty list and a nil error: "no recommendations" is a legitimate outcome,
// not a failure.
func (e *Engine) Recommend(userID int64) ([]*catalog.Movie, error) {
	target, ok := e.catalog.UserByID(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", catalog.ErrUserNotFound, userID)
	}

	liked := likedRatings(target)
	if len(liked) == 0 {
		// No preference signal to reason from.
		e.logger.Debug().Int64("user_id", userID).Msg("no liked ratings, empty recommendation")
		return []*catalog.Movie{}, nil
	}

	neighbors := e.candidateNeighbors(target, liked)
	result := e.collectRecommendations(target, neighbors)
	ranking.SortByAverage(result)

	e.logger.Debug().
		Int64("user_id", userID).
		Int("liked", len(liked)).
		Int("neighbors", len(neighbors)).
		Int("recommended", len(result)).
		Msg("recommendation computed")

	return result, nil
}

// likedRatings returns the user's ratings at or above LikedThreshold,
// descending by value, ties broken by rating-log insertion order.
func likedRatings(u *catalog.User) []catalog.Rating {
	liked := make([]catalog.Rating, 0, len(u.RatedMovies))
	for _, r := range u.RatedMovies {
		if r.Value >= LikedThreshold {
			liked = append(liked, r)
		}
	}

	sort.Slice(liked, func(i, j int) bool {
		if liked[i].Value != liked[j].Value {
			return liked[i].Value > liked[j].Value
		}
		return liked[i].Seq < liked[j].Seq
	})
	return liked
}

// candidateNeighbors collects every other user who co-rated one of the
// target's liked movies at a value >= the target's own rating for it.
// A user qualifies once no matter how many liked movies they co-rate;
// the target never qualifies as their own neighbor.
func (e *Engine) candidateNeighbors(target *catalog.User, liked []catalog.Rating) []*catalog.User {
	seen := make(map[int64]struct{})
	neighbors := make([]*catalog.User, 0)

	for _, own := range liked {
		movie, ok := e.catalog.MovieByID(own.MovieID)
		if !ok {
			continue
		}

		for raterID, theirs := range movie.UserRatings {
			if raterID == target.ID || theirs.Value < own.Value {
				continue
			}
			if _, dup := seen[raterID]; dup {
				continue
			}

			if neighbor, ok := e.catalog.UserByID(raterID); ok {
				seen[raterID] = struct{}{}
				neighbors = append(neighbors, neighbor)
			}
		}
	}

	return neighbors
}

// collectRecommendations gathers movies the neighbors rated at or above
// LikedThreshold that the target has not rated, deduplicated across
// neighbors. Each neighbor's ratings are examined descending by value.
func (e *Engine) collectRecommendations(target *catalog.User, neighbors []*catalog.User) []*catalog.Movie {
	seen := make(map[int64]struct{})
	result := make([]*catalog.Movie, 0)

	for _, neighbor := range neighbors {
		for _, r := range likedRatings(neighbor) {
			if _, rated := target.RatedMovies[r.MovieID]; rated {
				continue
			}
			if _, dup := seen[r.MovieID]; dup {
				continue
			}

			if movie, ok := e.catalog.MovieByID(r.MovieID); ok {
				seen[r.MovieID] = struct{}{}
				result = append(result, movie)
			}
		}
	}

	// The final ordering comes from the average-rating sort; gathering order
	// only needs to be deterministic for the stable tie-break, so normalize
	// to catalog insertion order.
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
