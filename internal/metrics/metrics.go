// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package metrics exposes Prometheus instrumentation for the HTTP API, the
// catalog, and the recommendation engine. All collectors register on the
// default registry and are served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinegraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Catalog Metrics
	CatalogUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinegraph_catalog_users",
			Help: "Current number of users in the catalog",
		},
	)

	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinegraph_catalog_movies",
			Help: "Current number of movies in the catalog",
		},
	)

	CatalogRatings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinegraph_catalog_ratings_total",
			Help: "Total number of ratings recorded, including overwrites",
		},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinegraph_recommend_duration_seconds",
			Help:    "Duration of recommendation computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinegraph_recommend_results",
			Help:    "Number of movies returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	// Persistence Metrics
	SnapshotSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_snapshot_saves_total",
			Help: "Total number of catalog snapshot saves",
		},
		[]string{"status"}, // "success" or "error"
	)
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordRecommendation records one recommendation computation.
func RecordRecommendation(duration time.Duration, results int) {
	RecommendDuration.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
}

// RecordSnapshotSave records a snapshot save attempt.
func RecordSnapshotSave(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SnapshotSaves.WithLabelValues(status).Inc()
}

// SetCatalogSize updates the catalog size gauges.
func SetCatalogSize(users, movies int) {
	CatalogUsers.Set(float64(users))
	CatalogMovies.Set(float64(movies))
}
