// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/cinegraph/internal/validation"
)

// bcryptCost balances hashing cost against bulk-ingestion throughput.
const bcryptCost = bcrypt.DefaultCost

// Store owns the catalog state: the three entity collections and the
// bidirectional rating indices. All mutations take the exclusive lock; reads
// take the shared lock, so no partial update is ever observable.
//
// Accessors and mutators return deep copies, never pointers into the live
// collections: a returned User or Movie is a consistent view taken under the
// lock, safe to read while concurrent mutations proceed.
//
// Every multi-step mutation resolves all referenced entities before touching
// any index: a failed operation leaves the Store unmodified.
type Store struct {
	mu sync.RWMutex

	users       map[int64]*User
	usersByName map[string]*User
	movies      map[int64]*Movie
	ratings     []Rating

	// Monotonic ID counters, independent of live collection size so that IDs
	// are never reused after removals.
	nextUserID  int64
	nextMovieID int64
	nextSeq     int64

	logger zerolog.Logger
}

// NewStore creates an empty catalog store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		users:       make(map[int64]*User),
		usersByName: make(map[string]*User),
		movies:      make(map[int64]*Movie),
		logger:      logger.With().Str("component", "catalog").Logger(),
	}
}

// AddUser validates the profile, assigns a fresh user ID, and inserts the
// user into the ID index and the username index. The password is bcrypt-hashed
// at creation; the plaintext is discarded.
func (s *Store) AddUser(profile UserProfile) (*User, error) {
	if err := validation.ValidateStruct(&profile); err != nil {
		return nil, fmt.Errorf("invalid user profile: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[profile.Username]; exists {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, profile.Username)
	}

	s.nextUserID++
	user := &User{
		ID:           s.nextUserID,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Age:          profile.Age,
		Gender:       profile.Gender,
		Occupation:   profile.Occupation,
		Username:     profile.Username,
		PasswordHash: hash,
		RatedMovies:  make(map[int64]Rating),
	}

	s.users[user.ID] = user
	s.usersByName[user.Username] = user

	s.logger.Debug().Int64("user_id", user.ID).Str("username", user.Username).Msg("user added")
	return copyUser(user), nil
}

// RemoveUser deletes the user from both user indices and cascades: every
// rating the user holds is retracted from the corresponding movie's index,
// using the user's RatedMovies map as the work list. The flat rating log is
// append-only and keeps its entries for enumeration.
func (s *Store) RemoveUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}

	for movieID := range user.RatedMovies {
		if movie, ok := s.movies[movieID]; ok {
			delete(movie.UserRatings, id)
		}
	}

	delete(s.users, id)
	delete(s.usersByName, user.Username)

	s.logger.Debug().Int64("user_id", id).Int("ratings_retracted", len(user.RatedMovies)).Msg("user removed")
	return nil
}

// AddMovie validates the input, assigns a fresh movie ID, and inserts the
// movie into the catalog.
func (s *Store) AddMovie(input MovieInput) (*Movie, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		return nil, fmt.Errorf("invalid movie: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMovieID++
	movie := &Movie{
		ID:          s.nextMovieID,
		Title:       input.Title,
		Year:        input.Year,
		URL:         input.URL,
		UserRatings: make(map[int64]Rating),
	}
	s.movies[movie.ID] = movie

	s.logger.Debug().Int64("movie_id", movie.ID).Str("title", movie.Title).Msg("movie added")
	return copyMovie(movie), nil
}

// AddRating records that userID rated movieID at value. Both entities are
// resolved before any index is touched; on failure the Store is unmodified.
// A prior rating for the same (user, movie) pair is overwritten in both
// indices, and the new rating is appended to the flat rating log.
//
// Out-of-scale values (negative, above 5) are accepted as-is: threshold
// comparisons downstream apply numerically.
func (s *Store) AddRating(userID, movieID int64, value int) (Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return Rating{}, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	movie, ok := s.movies[movieID]
	if !ok {
		return Rating{}, fmt.Errorf("%w: %d", ErrMovieNotFound, movieID)
	}

	s.nextSeq++
	r := Rating{
		UserID:  userID,
		MovieID: movieID,
		Value:   value,
		Seq:     s.nextSeq,
	}

	user.RatedMovies[movieID] = r
	movie.UserRatings[userID] = r
	s.ratings = append(s.ratings, r)

	return r, nil
}

// UserByID returns a copy of the user with the given ID, or (nil, false)
// when absent.
func (s *Store) UserByID(id int64) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return copyUser(user), true
}

// UserByUsername returns a copy of the user with the given username, or
// (nil, false).
func (s *Store) UserByUsername(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByName[username]
	if !ok {
		return nil, false
	}
	return copyUser(user), true
}

// MovieByID returns a copy of the movie with the given ID, or (nil, false)
// when absent.
func (s *Store) MovieByID(id int64) (*Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movie, ok := s.movies[id]
	if !ok {
		return nil, false
	}
	return copyMovie(movie), true
}

// Users returns all users in insertion order. IDs are monotonic and never
// reused, so ascending ID is insertion order.
func (s *Store) Users() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Movies returns all movies in insertion order (ascending ID).
func (s *Store) Movies() []*Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movies := make([]*Movie, 0, len(s.movies))
	for _, m := range s.movies {
		movies = append(movies, copyMovie(m))
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies
}

// Ratings returns the flat rating log in insertion order. The log is
// append-only: it retains entries for removed users and superseded
// (re-rated) pairs.
func (s *Store) Ratings() []Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rating, len(s.ratings))
	copy(out, s.ratings)
	return out
}

// UserRatings returns a copy of the rating map of the given user, or an
// error when the user does not exist.
func (s *Store) UserRatings(userID int64) (map[int64]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}

	out := make(map[int64]Rating, len(user.RatedMovies))
	for k, v := range user.RatedMovies {
		out[k] = v
	}
	return out, nil
}

// UserCount returns the number of live users.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// MovieCount returns the number of live movies.
func (s *Store) MovieCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// Authenticate performs an exact-match credential check and returns a copy
// of the authenticated user. It returns (nil, false), never an error, for an
// unknown username or a mismatched password, so callers cannot tell the two
// apart. The lookup and the credential check are one operation: the returned
// user is the one whose hash matched, even if a concurrent removal follows.
// Passwords are verified against the stored bcrypt hash; bcrypt's comparison
// is timing-safe.
func (s *Store) Authenticate(username, password string) (*User, bool) {
	s.mu.RLock()
	var user *User
	if live, ok := s.usersByName[username]; ok {
		user = copyUser(live)
	}
	s.mu.RUnlock()

	if user == nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, false
	}
	return user, true
}
