// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package main is the entry point for the Cinegraph server.
//
// Cinegraph is a self-hosted movie catalog with average-rating rankings and
// neighbor-based recommendations, served over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered config (defaults, YAML file, env vars)
//  2. Logging: zerolog, JSON or console format
//  3. Catalog: in-memory store restored from a BadgerDB snapshot when one
//     exists, otherwise seeded from flat files
//  4. Engines: average-rating ranker and recommendation engine
//  5. HTTP Server: Chi router with optional JWT authentication
//
// # Configuration
//
// All settings use the CINEGRAPH_ environment prefix (see internal/config).
// Common ones:
//
//	CINEGRAPH_SERVER_PORT=3857
//	CINEGRAPH_DATA_DIR=/data/cinegraph        # snapshot persistence
//	CINEGRAPH_DATA_SEED_DIR=/data/seed        # users.dat/items.dat/ratings.dat
//	CINEGRAPH_SECURITY_AUTH_MODE=jwt          # or "none" for development
//	CINEGRAPH_SECURITY_JWT_SECRET=...         # 32+ characters
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the server stops accepting
// connections, waits up to 10 seconds for in-flight requests, and saves a
// final catalog snapshot when persistence is enabled.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cinegraph/internal/api"
	"github.com/tomtom215/cinegraph/internal/auth"
	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/ingest"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/metrics"
	"github.com/tomtom215/cinegraph/internal/persist"
	"github.com/tomtom215/cinegraph/internal/ranking"
	"github.com/tomtom215/cinegraph/internal/recommend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("persistence", cfg.Data.Dir != "").
		Msg("Starting Cinegraph")

	store := catalog.NewStore(logging.Logger())

	// Persistence is optional: without a data dir the catalog is memory-only.
	var snapshots *persist.SnapshotStore
	if cfg.Data.Dir != "" {
		snapshots, err = persist.Open(cfg.Data.Dir, logging.Logger())
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open snapshot store")
		}
		defer func() {
			if err := snapshots.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot store")
			}
		}()
	}

	if err := populateCatalog(store, snapshots, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to populate catalog")
	}
	metrics.SetCatalogSize(store.UserCount(), store.MovieCount())

	ranker := ranking.New(store)
	engine := recommend.NewEngine(store, logging.Logger())

	var tokens *auth.TokenManager
	if cfg.Security.AuthMode == "jwt" {
		tokens, err = auth.NewTokenManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize token manager")
		}
	}

	var snapshotter api.Snapshotter
	if snapshots != nil {
		snapshotter = snapshots
	}
	handler := api.NewHandler(store, ranker, engine, tokens, snapshotter, cfg.API)
	router := api.NewRouter(handler, auth.NewMiddleware(tokens, cfg.Security.AuthMode), cfg.Security)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if snapshots != nil && cfg.Data.AutosaveInterval > 0 {
		go autosave(ctx, store, snapshots, cfg.Data.AutosaveInterval)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if snapshots != nil {
		err := snapshots.Save(store.Export())
		metrics.RecordSnapshotSave(err)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to save final snapshot")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// populateCatalog restores a persisted snapshot when one exists, otherwise
// seeds from flat files when a seed directory is configured.
func populateCatalog(store *catalog.Store, snapshots *persist.SnapshotStore, cfg *config.Config) error {
	if snapshots != nil {
		snap, err := snapshots.Load()
		switch {
		case err == nil:
			store.Restore(snap)
			logging.Info().
				Int("users", store.UserCount()).
				Int("movies", store.MovieCount()).
				Msg("Catalog restored from snapshot")
			return nil
		case errors.Is(err, persist.ErrNoSnapshot):
			logging.Info().Msg("No snapshot found")
		default:
			return err
		}
	}

	if cfg.Data.SeedDir == "" {
		logging.Info().Msg("Starting with an empty catalog")
		return nil
	}

	loader := ingest.NewLoader(store, ingest.Config{
		DefaultPassword: cfg.Data.DefaultPassword,
	}, logging.Logger())
	stats, err := loader.LoadDir(cfg.Data.SeedDir)
	if err != nil {
		return err
	}
	logging.Info().
		Int("users", stats.Users).
		Int("movies", stats.Movies).
		Int("ratings", stats.Ratings).
		Int("skipped", stats.Skipped).
		Msg("Catalog seeded from flat files")
	return nil
}

// autosave snapshots the catalog on the configured interval until ctx ends.
func autosave(ctx context.Context, store *catalog.Store, snapshots *persist.SnapshotStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := snapshots.Save(store.Export())
			metrics.RecordSnapshotSave(err)
			if err != nil {
				logging.Error().Err(err).Msg("Autosave failed")
			}
		}
	}
}
