// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/cinegraph/internal/logging"
)

type contextKey string

// ClaimsContextKey carries the verified *Claims on authenticated requests.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces bearer-token authentication on protected routes.
// With auth mode "none" it passes every request through unchanged.
type Middleware struct {
	tokens   *TokenManager
	authMode string
}

// NewMiddleware creates the middleware. tokens may be nil when authMode is
// "none".
func NewMiddleware(tokens *TokenManager, authMode string) *Middleware {
	return &Middleware{tokens: tokens, authMode: authMode}
}

// Authenticate wraps a handler with bearer-token verification. It is shaped
// for chi's Use().
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			logging.Debug().Err(err).Msg("token verification failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims attached by Authenticate, or nil when
// the request was not authenticated (auth mode "none").
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}
