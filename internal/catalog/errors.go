// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

import "errors"

// Sentinel errors for catalog operations. Absent entities on read accessors
// are NOT errors; these sentinels are returned only by operations that name
// an entity which must exist (RemoveUser, AddRating, Recommend).
var (
	// ErrUserNotFound indicates the referenced user ID does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMovieNotFound indicates the referenced movie ID does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrUsernameTaken indicates a user with this username already exists.
	ErrUsernameTaken = errors.New("username already taken")
)
