// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

// Snapshot is the Store's whole state at a single instant, in the order the
// persistence collaborator serializes it: users, username index, movies,
// rating log. The ID counters ride along so that restored stores keep the
// never-reuse-an-ID guarantee across restarts.
type Snapshot struct {
	Users         map[int64]*User  `json:"users"`
	UsernameIndex map[string]int64 `json:"username_index"`
	Movies        map[int64]*Movie `json:"movies"`
	Ratings       []Rating         `json:"ratings"`

	NextUserID  int64 `json:"next_user_id"`
	NextMovieID int64 `json:"next_movie_id"`
	NextSeq     int64 `json:"next_seq"`
}

// Export returns a deep copy of the Store's state. The copy shares nothing
// with the live store, so it can be serialized while the store keeps serving.
func (s *Store) Export() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Users:         make(map[int64]*User, len(s.users)),
		UsernameIndex: make(map[string]int64, len(s.usersByName)),
		Movies:        make(map[int64]*Movie, len(s.movies)),
		Ratings:       make([]Rating, len(s.ratings)),
		NextUserID:    s.nextUserID,
		NextMovieID:   s.nextMovieID,
		NextSeq:       s.nextSeq,
	}

	for id, u := range s.users {
		snap.Users[id] = copyUser(u)
	}
	for name, u := range s.usersByName {
		snap.UsernameIndex[name] = u.ID
	}
	for id, m := range s.movies {
		snap.Movies[id] = copyMovie(m)
	}
	copy(snap.Ratings, s.ratings)

	return snap
}

// Restore replaces the Store's whole state with the snapshot. The username
// index is rebuilt from the user records the index IDs point at, so the two
// user indices cannot diverge on load. Counters are clamped to at least the
// highest live ID to preserve ID uniqueness even against a stale snapshot.
func (s *Store) Restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[int64]*User, len(snap.Users))
	s.usersByName = make(map[string]*User, len(snap.UsernameIndex))
	s.movies = make(map[int64]*Movie, len(snap.Movies))
	s.ratings = make([]Rating, len(snap.Ratings))

	for id, u := range snap.Users {
		user := copyUser(u)
		if user.RatedMovies == nil {
			user.RatedMovies = make(map[int64]Rating)
		}
		s.users[id] = user
	}
	for name, id := range snap.UsernameIndex {
		if user, ok := s.users[id]; ok {
			s.usersByName[name] = user
		}
	}
	for id, m := range snap.Movies {
		movie := copyMovie(m)
		if movie.UserRatings == nil {
			movie.UserRatings = make(map[int64]Rating)
		}
		s.movies[id] = movie
	}
	copy(s.ratings, snap.Ratings)

	s.nextUserID = snap.NextUserID
	s.nextMovieID = snap.NextMovieID
	s.nextSeq = snap.NextSeq
	for id := range s.users {
		if id > s.nextUserID {
			s.nextUserID = id
		}
	}
	for id := range s.movies {
		if id > s.nextMovieID {
			s.nextMovieID = id
		}
	}
	for i := range s.ratings {
		if s.ratings[i].Seq > s.nextSeq {
			s.nextSeq = s.ratings[i].Seq
		}
	}

	s.logger.Info().
		Int("users", len(s.users)).
		Int("movies", len(s.movies)).
		Int("ratings", len(s.ratings)).
		Msg("catalog state restored")
}

func copyUser(u *User) *User {
	out := *u
	out.PasswordHash = append([]byte(nil), u.PasswordHash...)
	out.RatedMovies = make(map[int64]Rating, len(u.RatedMovies))
	for k, v := range u.RatedMovies {
		out.RatedMovies[k] = v
	}
	return &out
}

func copyMovie(m *Movie) *Movie {
	out := *m
	out.UserRatings = make(map[int64]Rating, len(m.UserRatings))
	for k, v := range m.UserRatings {
		out.UserRatings[k] = v
	}
	return &out
}
