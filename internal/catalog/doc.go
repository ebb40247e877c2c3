// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package catalog owns the in-memory movie catalog: users, movies, ratings,
// and the bidirectional indices between them.
//
// The Store is the single owner of all catalog state. Mutations (AddUser,
// AddMovie, AddRating, RemoveUser) go through an exclusive lock and keep the
// user-side and movie-side rating indices consistent: a rating appears in
// both or in neither. Read accessors never report errors for absent entities;
// they return an explicit absent marker instead.
//
// The ranking and recommendation engines are pure read-only consumers of the
// Store and live in their own packages (internal/ranking, internal/recommend)
// to keep the query logic separate from state ownership.
package catalog
