// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cinegraph/internal/auth"
	"github.com/tomtom215/cinegraph/internal/config"
)

// Router assembles the full HTTP surface.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	secCfg  config.SecurityConfig
}

// NewRouter creates a router around the handler and auth middleware.
func NewRouter(handler *Handler, authMW *auth.Middleware, secCfg config.SecurityConfig) *Router {
	return &Router{handler: handler, authMW: authMW, secCfg: secCfg}
}

// Setup builds the Chi handler tree.
//
// Read endpoints (listing, ranking, search, health) are public; mutations
// and recommendations sit behind the auth middleware, which is a no-op in
// auth mode "none".
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.secCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if router.secCfg.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(router.secCfg.RateLimitReqs, router.secCfg.RateLimitWindow))
	}

	r.Get("/api/v1/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Login gets its own tight limit to slow credential stuffing.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(httprate.LimitByIP(5, 5*time.Minute)).Post("/login", router.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/users", router.handler.ListUsers)
		r.Get("/users/{id}", router.handler.GetUser)
		r.Get("/users/{id}/ratings", router.handler.UserRatings)
		r.Get("/movies", router.handler.ListMovies)
		r.Get("/movies/top", router.handler.TopMovies)
		r.Get("/movies/search", router.handler.SearchMovies)
		r.Get("/movies/{id}", router.handler.GetMovie)
		r.Get("/ratings", router.handler.ListRatings)

		r.Group(func(r chi.Router) {
			r.Use(router.authMW.Authenticate)

			r.Post("/users", router.handler.CreateUser)
			r.Delete("/users/{id}", router.handler.DeleteUser)
			r.Get("/users/{id}/recommendations", router.handler.Recommendations)
			r.Post("/movies", router.handler.CreateMovie)
			r.Post("/ratings", router.handler.CreateRating)
			r.Post("/admin/snapshot", router.handler.SaveSnapshot)
		})
	})

	return r
}
