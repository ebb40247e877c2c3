// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

// User is a catalog user. RatedMovies is the user-side rating index, keyed by
// movie ID; it always mirrors the movie-side index of every movie it names.
type User struct {
	// ID is the unique, stable user identifier. IDs are assigned from a
	// monotonic counter and never reused, even after removals.
	ID int64 `json:"user_id"`

	// FirstName is the user's first name.
	FirstName string `json:"first_name"`

	// LastName is the user's last name.
	LastName string `json:"last_name"`

	// Age is the user's age in years.
	Age int `json:"age"`

	// Gender is a single-letter gender code (M, F, O).
	Gender string `json:"gender"`

	// Occupation is the user's occupation.
	Occupation string `json:"occupation"`

	// Username is the unique login name; it is a secondary index into the
	// same user record, not a separate entity.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password. The plaintext
	// password is never stored.
	PasswordHash []byte `json:"password_hash"`

	// RatedMovies maps movie ID to the user's current rating of that movie.
	// One rating per movie; re-rating overwrites.
	RatedMovies map[int64]Rating `json:"rated_movies"`
}

// Movie is a catalog movie. UserRatings is the movie-side rating index,
// keyed by user ID, mirroring the user side.
type Movie struct {
	// ID is the unique, stable movie identifier (monotonic, never reused).
	ID int64 `json:"movie_id"`

	// Title is the movie title, typically with a year qualifier such as
	// "Toy Story (1995)".
	Title string `json:"title"`

	// Year is the release year.
	Year int `json:"year"`

	// URL is a reference URL for the movie.
	URL string `json:"url"`

	// UserRatings maps user ID to that user's current rating of this movie.
	UserRatings map[int64]Rating `json:"user_ratings"`
}

// Rating is an immutable fact: user UserID rated movie MovieID at Value.
// Values are nominally on a 1-5 scale but out-of-scale values occur in real
// data and are tolerated numerically; 3 is the liked threshold used by the
// recommendation engine.
type Rating struct {
	UserID  int64 `json:"user_id"`
	MovieID int64 `json:"movie_id"`
	Value   int   `json:"value"`

	// Seq is the rating's position in the global rating log. It is assigned
	// once at insertion and gives insertion order a stable, explicit form for
	// deterministic tie-breaking.
	Seq int64 `json:"seq"`
}

// UserProfile is the input for creating a user. All fields are mandatory.
type UserProfile struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Age        int    `json:"age" validate:"required,gt=0,lt=150"`
	Gender     string `json:"gender" validate:"required,len=1"`
	Occupation string `json:"occupation" validate:"required"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// MovieInput is the input for creating a movie. All fields are mandatory.
type MovieInput struct {
	Title string `json:"title" validate:"required"`
	Year  int    `json:"year" validate:"required,gt=0"`
	URL   string `json:"url" validate:"required,url"`
}
