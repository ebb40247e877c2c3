// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package api

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinegraph/internal/auth"
	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/metrics"
	"github.com/tomtom215/cinegraph/internal/ranking"
	"github.com/tomtom215/cinegraph/internal/recommend"
)

// Snapshotter saves the catalog's current state. The admin snapshot endpoint
// uses it; it is nil when persistence is disabled.
type Snapshotter interface {
	Save(*catalog.Snapshot) error
}

// Handler serves all Cinegraph API endpoints.
type Handler struct {
	store     *catalog.Store
	ranker    *ranking.Ranker
	engine    *recommend.Engine
	tokens    *auth.TokenManager
	snapshots Snapshotter
	apiCfg    config.APIConfig
	startedAt time.Time
}

// NewHandler creates the handler. tokens may be nil with auth mode "none";
// snapshots may be nil when persistence is disabled.
func NewHandler(
	store *catalog.Store,
	ranker *ranking.Ranker,
	engine *recommend.Engine,
	tokens *auth.TokenManager,
	snapshots Snapshotter,
	apiCfg config.APIConfig,
) *Handler {
	return &Handler{
		store:     store,
		ranker:    ranker,
		engine:    engine,
		tokens:    tokens,
		snapshots: snapshots,
		apiCfg:    apiCfg,
		startedAt: time.Now(),
	}
}

// userResponse is the wire shape of a user. Credentials never leave the
// server.
type userResponse struct {
	ID         int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Occupation string `json:"occupation"`
	Username   string `json:"username"`
	Ratings    int    `json:"ratings"`
}

// movieResponse is the wire shape of a movie, including its rating summary.
type movieResponse struct {
	ID      int64    `json:"movie_id"`
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	URL     string   `json:"url"`
	Ratings int      `json:"ratings"`
	Average *float64 `json:"average_rating"` // null when unrated
}

type ratingResponse struct {
	UserID  int64 `json:"user_id"`
	MovieID int64 `json:"movie_id"`
	Value   int   `json:"value"`
}

func toUserResponse(u *catalog.User) userResponse {
	return userResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Age:        u.Age,
		Gender:     u.Gender,
		Occupation: u.Occupation,
		Username:   u.Username,
		Ratings:    len(u.RatedMovies),
	}
}

func toMovieResponse(m *catalog.Movie) movieResponse {
	resp := movieResponse{
		ID:      m.ID,
		Title:   m.Title,
		Year:    m.Year,
		URL:     m.URL,
		Ratings: len(m.UserRatings),
	}
	if avg := ranking.Average(m); !math.IsNaN(avg) {
		resp.Average = &avg
	}
	return resp
}

func toMovieResponses(movies []*catalog.Movie) []movieResponse {
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var profile catalog.UserProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body", nil)
		return
	}

	user, err := h.store.AddUser(profile)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	metrics.SetCatalogSize(h.store.UserCount(), h.store.MovieCount())
	respondData(w, r, http.StatusCreated, toUserResponse(user))
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.store.Users()
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondList(w, r, out, len(out))
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer", nil)
		return
	}
	user, ok := h.store.UserByID(id)
	if !ok {
		respondDomainError(w, r, catalog.ErrUserNotFound)
		return
	}
	respondData(w, r, http.StatusOK, toUserResponse(user))
}

// DeleteUser handles DELETE /api/v1/users/{id}. Removal cascades: the
// user's ratings disappear from every movie.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer", nil)
		return
	}
	if err := h.store.RemoveUser(id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	metrics.SetCatalogSize(h.store.UserCount(), h.store.MovieCount())
	w.WriteHeader(http.StatusNoContent)
}

// UserRatings handles GET /api/v1/users/{id}/ratings.
func (h *Handler) UserRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer", nil)
		return
	}
	rated, err := h.store.UserRatings(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]ratingResponse, 0, len(rated))
	for _, rt := range rated {
		out = append(out, ratingResponse{UserID: rt.UserID, MovieID: rt.MovieID, Value: rt.Value})
	}
	// Map iteration order is random; present ratings by movie ID.
	sortRatingsByMovie(out)
	respondList(w, r, out, len(out))
}

// CreateMovie handles POST /api/v1/movies.
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var input catalog.MovieInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body", nil)
		return
	}

	movie, err := h.store.AddMovie(input)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	metrics.SetCatalogSize(h.store.UserCount(), h.store.MovieCount())
	respondData(w, r, http.StatusCreated, toMovieResponse(movie))
}

// ListMovies handles GET /api/v1/movies.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	out := toMovieResponses(h.store.Movies())
	respondList(w, r, out, len(out))
}

// GetMovie handles GET /api/v1/movies/{id}.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "movie id must be an integer", nil)
		return
	}
	movie, ok := h.store.MovieByID(id)
	if !ok {
		respondDomainError(w, r, catalog.ErrMovieNotFound)
		return
	}
	respondData(w, r, http.StatusOK, toMovieResponse(movie))
}

// TopMovies handles GET /api/v1/movies/top?n=. Without n the configured
// default applies; n is clamped to the configured maximum.
func (h *Handler) TopMovies(w http.ResponseWriter, r *http.Request) {
	n := h.apiCfg.DefaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
				"n must be a non-negative integer", nil)
			return
		}
		n = parsed
	}
	if n > h.apiCfg.MaxTopN {
		n = h.apiCfg.MaxTopN
	}

	out := toMovieResponses(h.ranker.TopN(n))
	respondList(w, r, out, len(out))
}

// SearchMovies handles GET /api/v1/movies/search?prefix=.
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			"prefix query parameter is required", nil)
		return
	}

	out := toMovieResponses(h.store.SearchMovies(prefix))
	respondList(w, r, out, len(out))
}

// createRatingRequest is the body of POST /api/v1/ratings.
type createRatingRequest struct {
	UserID  int64 `json:"user_id"`
	MovieID int64 `json:"movie_id"`
	Value   int   `json:"value"`
}

// CreateRating handles POST /api/v1/ratings. Re-rating the same pair
// overwrites the previous value.
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	var req createRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body", nil)
		return
	}

	rating, err := h.store.AddRating(req.UserID, req.MovieID, req.Value)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	metrics.CatalogRatings.Inc()
	respondData(w, r, http.StatusCreated, ratingResponse{
		UserID:  rating.UserID,
		MovieID: rating.MovieID,
		Value:   rating.Value,
	})
}

// ListRatings handles GET /api/v1/ratings, returning the full rating log in
// insertion order. Overwritten ratings appear once per submission.
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ratings := h.store.Ratings()
	out := make([]ratingResponse, 0, len(ratings))
	for _, rt := range ratings {
		out = append(out, ratingResponse{UserID: rt.UserID, MovieID: rt.MovieID, Value: rt.Value})
	}
	respondList(w, r, out, len(out))
}

// Recommendations handles GET /api/v1/users/{id}/recommendations. A user
// with no likes or no matching neighbors gets an empty list, not an error.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer", nil)
		return
	}

	start := time.Now()
	movies, err := h.engine.Recommend(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	metrics.RecordRecommendation(time.Since(start), len(movies))

	out := toMovieResponses(movies)
	respondList(w, r, out, len(out))
}

// loginRequest is the body of POST /api/v1/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

// Login handles POST /api/v1/auth/login, exchanging catalog credentials for
// a bearer token. Unknown users and wrong passwords are indistinguishable.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body", nil)
		return
	}

	if h.tokens == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"authentication is disabled", nil)
		return
	}

	user, ok := h.store.Authenticate(req.Username, req.Password)
	if !ok {
		logging.Warn().Str("username", req.Username).Msg("failed login attempt")
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized,
			"invalid credentials", nil)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusOK, loginResponse{Token: token, TokenType: "Bearer"})
}

// SaveSnapshot handles POST /api/v1/admin/snapshot.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"persistence is disabled", nil)
		return
	}

	err := h.snapshots.Save(h.store.Export())
	metrics.RecordSnapshotSave(err)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusOK, map[string]interface{}{
		"users":   h.store.UserCount(),
		"movies":  h.store.MovieCount(),
		"ratings": len(h.store.Ratings()),
	})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"users":          h.store.UserCount(),
		"movies":         h.store.MovieCount(),
	})
}

func sortRatingsByMovie(ratings []ratingResponse) {
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].MovieID < ratings[j].MovieID
	})
}
