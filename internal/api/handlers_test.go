// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/auth"
	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/ranking"
	"github.com/tomtom215/cinegraph/internal/recommend"
)

type testServer struct {
	store   *catalog.Store
	handler http.Handler
	tokens  *auth.TokenManager
}

// newTestServer wires a full router with auth mode "none". Rate limits are
// disabled so loops in tests cannot trip them.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithAuth(t, "none")
}

func newTestServerWithAuth(t *testing.T, authMode string) *testServer {
	t.Helper()

	store := catalog.NewStore(zerolog.Nop())
	ranker := ranking.New(store)
	engine := recommend.NewEngine(store, zerolog.Nop())

	secCfg := config.SecurityConfig{
		AuthMode:        authMode,
		JWTSecret:       strings.Repeat("t", 32),
		TokenTTL:        time.Hour,
		RateLimitReqs:   0,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	}

	var tokens *auth.TokenManager
	if authMode == "jwt" {
		var err error
		tokens, err = auth.NewTokenManager(&secCfg)
		if err != nil {
			t.Fatalf("NewTokenManager() error = %v", err)
		}
	}

	handler := NewHandler(store, ranker, engine, tokens, nil, config.APIConfig{
		DefaultTopN: 10,
		MaxTopN:     100,
	})
	router := NewRouter(handler, auth.NewMiddleware(tokens, authMode), secCfg)

	return &testServer{store: store, handler: router.Setup(), tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return &resp
}

func userBody(username string) map[string]interface{} {
	return map[string]interface{}{
		"first_name": "Jenna",
		"last_name":  "Parker",
		"age":        33,
		"gender":     "F",
		"occupation": "engineer",
		"username":   username,
		"password":   "secret",
	}
}

func movieBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title": title,
		"year":  1995,
		"url":   "http://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
	}
}

func (ts *testServer) seedUser(t *testing.T, username string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/users", userBody(username))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed user: status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	return int64(resp.Data.(map[string]interface{})["user_id"].(float64))
}

func (ts *testServer) seedMovie(t *testing.T, title string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/movies", movieBody(title))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed movie: status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	return int64(resp.Data.(map[string]interface{})["movie_id"].(float64))
}

func (ts *testServer) rate(t *testing.T, userID, movieID int64, value int) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/ratings", map[string]interface{}{
		"user_id": userID, "movie_id": movieID, "value": value,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("rate: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUsers_CreateGetDelete(t *testing.T) {
	ts := newTestServer(t)

	id := ts.seedUser(t, "jparker")

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET user status = %d", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["username"] != "jparker" {
		t.Errorf("username = %v", data["username"])
	}
	if _, exposed := data["password"]; exposed {
		t.Error("password leaked in user response")
	}
	if _, exposed := data["password_hash"]; exposed {
		t.Error("password hash leaked in user response")
	}

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE user status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted user status = %d, want 404", rec.Code)
	}
}

func TestUsers_CreateValidation(t *testing.T) {
	ts := newTestServer(t)

	body := userBody("jparker")
	body["age"] = 0

	rec := ts.do(t, http.MethodPost, "/api/v1/users", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
	}
}

func TestUsers_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "jparker")

	rec := ts.do(t, http.MethodPost, "/api/v1/users", userBody("jparker"))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUsers_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMovies_TopN(t *testing.T) {
	ts := newTestServer(t)

	u1 := ts.seedUser(t, "u1")
	u2 := ts.seedUser(t, "u2")
	good := ts.seedMovie(t, "Good Movie")
	bad := ts.seedMovie(t, "Bad Movie")
	unrated := ts.seedMovie(t, "Unrated Movie")

	ts.rate(t, u1, good, 5)
	ts.rate(t, u2, good, 4)
	ts.rate(t, u1, bad, 1)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies/top?n=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	list := resp.Data.([]interface{})
	if len(list) != 2 {
		t.Fatalf("top list length = %d, want 2", len(list))
	}
	first := list[0].(map[string]interface{})
	if int64(first["movie_id"].(float64)) != good {
		t.Errorf("top movie = %v, want %d", first["movie_id"], good)
	}
	if avg := first["average_rating"].(float64); avg != 4.5 {
		t.Errorf("average = %v, want 4.5", avg)
	}

	// Unrated movies rank last and carry a null average.
	rec = ts.do(t, http.MethodGet, "/api/v1/movies/top?n=100", nil)
	list = decodeEnvelope(t, rec).Data.([]interface{})
	last := list[len(list)-1].(map[string]interface{})
	if int64(last["movie_id"].(float64)) != unrated {
		t.Errorf("last movie = %v, want unrated %d", last["movie_id"], unrated)
	}
	if last["average_rating"] != nil {
		t.Errorf("unrated average = %v, want null", last["average_rating"])
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/movies/top?n=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus n status = %d, want 400", rec.Code)
	}
}

func TestMovies_Search(t *testing.T) {
	ts := newTestServer(t)
	ts.seedMovie(t, "Toy Story (1995)")
	ts.seedMovie(t, "Toys (1992)")
	ts.seedMovie(t, "GoldenEye (1995)")

	rec := ts.do(t, http.MethodGet, "/api/v1/movies/search?prefix=toy", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if n := len(resp.Data.([]interface{})); n != 2 {
		t.Errorf("matches = %d, want 2", n)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/movies/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing prefix status = %d, want 400", rec.Code)
	}

	// No matches is an empty list, not an error.
	rec = ts.do(t, http.MethodGet, "/api/v1/movies/search?prefix=zzz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("no-match status = %d, want 200", rec.Code)
	}
	if n := len(decodeEnvelope(t, rec).Data.([]interface{})); n != 0 {
		t.Errorf("no-match list length = %d, want 0", n)
	}
}

func TestRatings_CreateAndList(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "u1")
	m1 := ts.seedMovie(t, "First")
	m2 := ts.seedMovie(t, "Second")

	ts.rate(t, u, m1, 4)
	ts.rate(t, u, m2, 2)
	ts.rate(t, u, m1, 5) // overwrite

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/ratings", u), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decodeEnvelope(t, rec).Data.([]interface{})
	if len(list) != 2 {
		t.Fatalf("ratings = %d, want 2 (overwrite must not duplicate)", len(list))
	}
	first := list[0].(map[string]interface{})
	if int(first["value"].(float64)) != 5 {
		t.Errorf("overwritten rating = %v, want 5", first["value"])
	}
}

func TestRatings_ListAll(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "u1")
	m := ts.seedMovie(t, "Only")

	ts.rate(t, u, m, 2)
	ts.rate(t, u, m, 4) // the log keeps both submissions

	rec := ts.do(t, http.MethodGet, "/api/v1/ratings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decodeEnvelope(t, rec).Data.([]interface{})
	if len(list) != 2 {
		t.Fatalf("rating log length = %d, want 2", len(list))
	}
	last := list[1].(map[string]interface{})
	if int(last["value"].(float64)) != 4 {
		t.Errorf("latest log entry value = %v, want 4", last["value"])
	}
}

func TestRatings_UnknownReferences(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "u1")
	m := ts.seedMovie(t, "Only")

	for _, body := range []map[string]interface{}{
		{"user_id": 999, "movie_id": m, "value": 3},
		{"user_id": u, "movie_id": 999, "value": 3},
	} {
		rec := ts.do(t, http.MethodPost, "/api/v1/ratings", body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d for %v, want 404", rec.Code, body)
		}
	}
}

func TestRecommendations(t *testing.T) {
	ts := newTestServer(t)

	target := ts.seedUser(t, "target")
	neighbor := ts.seedUser(t, "neighbor")
	shared := ts.seedMovie(t, "Shared Favorite")
	pick := ts.seedMovie(t, "Neighbor Pick")

	ts.rate(t, target, shared, 5)
	ts.rate(t, neighbor, shared, 5)
	ts.rate(t, neighbor, pick, 4)

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/recommendations", target), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decodeEnvelope(t, rec).Data.([]interface{})
	if len(list) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(list))
	}
	got := list[0].(map[string]interface{})
	if int64(got["movie_id"].(float64)) != pick {
		t.Errorf("recommended = %v, want %d", got["movie_id"], pick)
	}

	// A user with no likes gets an empty list.
	loner := ts.seedUser(t, "loner")
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/recommendations", loner), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("loner status = %d, want 200", rec.Code)
	}
	if n := len(decodeEnvelope(t, rec).Data.([]interface{})); n != 0 {
		t.Errorf("loner recommendations = %d, want 0", n)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/users/999/recommendations", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("status field = %v", data["status"])
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestAuthMode_JWT(t *testing.T) {
	ts := newTestServerWithAuth(t, "jwt")

	// Seed through the store directly; the API requires a token for writes.
	user, err := ts.store.AddUser(catalog.UserProfile{
		FirstName: "Jenna", LastName: "Parker", Age: 33, Gender: "F",
		Occupation: "engineer", Username: "jparker", Password: "secret",
	})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	// Reads stay open.
	if rec := ts.do(t, http.MethodGet, "/api/v1/movies", nil); rec.Code != http.StatusOK {
		t.Errorf("unauthenticated read status = %d, want 200", rec.Code)
	}

	// Writes without a token are rejected.
	rec := ts.do(t, http.MethodPost, "/api/v1/movies", movieBody("Locked"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated write status = %d, want 401", rec.Code)
	}

	// Wrong credentials do not yield a token.
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "jparker", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "jparker", "password": "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token := decodeEnvelope(t, rec).Data.(map[string]interface{})["token"].(string)

	rec = ts.do(t, http.MethodPost, "/api/v1/movies", movieBody("Unlocked"),
		"Authorization", "Bearer "+token)
	if rec.Code != http.StatusCreated {
		t.Errorf("authenticated write status = %d, want 201", rec.Code)
	}

	// The token's subject matches the catalog user.
	claims, err := ts.tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if id != user.ID {
		t.Errorf("token subject = %d, want %d", id, user.ID)
	}
}

func TestSnapshotEndpoint_Disabled(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/snapshot", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when persistence is disabled", rec.Code)
	}
}
