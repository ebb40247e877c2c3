// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package ingest bulk-loads the catalog from pipe-separated flat files in the
// MovieLens style:
//
//	users.dat    firstName|lastName|age|gender|occupation
//	items.dat    title|year|url
//	ratings.dat  userRow|movieRow|value
//
// Rows are 1-based line positions within their file; the loader translates
// them to the IDs the store actually assigned, so files and store never have
// to agree on numbering. Raw data carries no credentials, so usernames are
// synthesized from the name and row number and every ingested user gets the
// configured default password.
//
// Real rating data is messy (out-of-scale and negative values occur); the
// loader passes values through untouched and only skips lines it cannot
// parse at all, counting them as skipped rather than failing the load.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Default file names within a data directory.
const (
	UsersFile   = "users.dat"
	MoviesFile  = "items.dat"
	RatingsFile = "ratings.dat"
)

const fieldSeparator = "|"

// Config controls loader behavior.
type Config struct {
	// DefaultPassword is assigned to every ingested user.
	// Default: "changeme".
	DefaultPassword string
}

// Stats reports what a load did.
type Stats struct {
	Users   int `json:"users"`
	Movies  int `json:"movies"`
	Ratings int `json:"ratings"`
	Skipped int `json:"skipped"`
}

// Loader feeds flat-file data into a catalog store through the normal
// mutation path, so every ingested record passes the same validation and
// index maintenance as interactively created ones.
type Loader struct {
	store  *catalog.Store
	cfg    Config
	logger zerolog.Logger

	userIDs  map[int]int64 // file row -> assigned user ID
	movieIDs map[int]int64 // file row -> assigned movie ID
}

// NewLoader creates a loader for the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(store *catalog.Store, cfg Config, logger zerolog.Logger) *Loader {
	if cfg.DefaultPassword == "" {
		cfg.DefaultPassword = "changeme"
	}
	return &Loader{
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "ingest").Logger(),
		userIDs:  make(map[int]int64),
		movieIDs: make(map[int]int64),
	}
}

// LoadDir loads users.dat, items.dat, and ratings.dat from dir, in that
// order (ratings reference the other two). A missing users or items file is
// an error; a missing ratings file loads an unrated catalog.
func (l *Loader) LoadDir(dir string) (Stats, error) {
	var stats Stats

	if err := l.loadFile(filepath.Join(dir, UsersFile), &stats, l.loadUserLine); err != nil {
		return stats, fmt.Errorf("load users: %w", err)
	}
	if err := l.loadFile(filepath.Join(dir, MoviesFile), &stats, l.loadMovieLine); err != nil {
		return stats, fmt.Errorf("load movies: %w", err)
	}

	ratingsPath := filepath.Join(dir, RatingsFile)
	if _, err := os.Stat(ratingsPath); err == nil {
		if err := l.loadFile(ratingsPath, &stats, l.loadRatingLine); err != nil {
			return stats, fmt.Errorf("load ratings: %w", err)
		}
	}

	l.logger.Info().
		Int("users", stats.Users).
		Int("movies", stats.Movies).
		Int("ratings", stats.Ratings).
		Int("skipped", stats.Skipped).
		Msg("flat-file ingestion complete")

	return stats, nil
}

// LoadUsers reads user lines from r. Exposed for loading from sources other
// than a data directory.
func (l *Loader) LoadUsers(r io.Reader) (Stats, error) {
	var stats Stats
	err := l.scan(r, &stats, l.loadUserLine)
	return stats, err
}

// LoadMovies reads movie lines from r.
func (l *Loader) LoadMovies(r io.Reader) (Stats, error) {
	var stats Stats
	err := l.scan(r, &stats, l.loadMovieLine)
	return stats, err
}

// LoadRatings reads rating lines from r. Users and movies must be loaded
// first so row references resolve.
func (l *Loader) LoadRatings(r io.Reader) (Stats, error) {
	var stats Stats
	err := l.scan(r, &stats, l.loadRatingLine)
	return stats, err
}

type lineLoader func(row int, fields []string, stats *Stats) error

func (l *Loader) loadFile(path string, stats *Stats, fn lineLoader) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return l.scan(f, stats, fn)
}

func (l *Loader) scan(r io.Reader, stats *Stats, fn lineLoader) error {
	scanner := bufio.NewScanner(r)
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row++

		if err := fn(row, strings.Split(line, fieldSeparator), stats); err != nil {
			stats.Skipped++
			l.logger.Warn().Err(err).Int("row", row).Msg("skipping malformed line")
		}
	}
	return scanner.Err()
}

func (l *Loader) loadUserLine(row int, fields []string, stats *Stats) error {
	if len(fields) != 5 {
		return fmt.Errorf("want 5 fields, got %d", len(fields))
	}

	age, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return fmt.Errorf("age: %w", err)
	}

	first := strings.TrimSpace(fields[0])
	last := strings.TrimSpace(fields[1])
	user, err := l.store.AddUser(catalog.UserProfile{
		FirstName:  first,
		LastName:   last,
		Age:        age,
		Gender:     strings.TrimSpace(fields[3]),
		Occupation: strings.TrimSpace(fields[4]),
		Username:   synthesizeUsername(first, last, row),
		Password:   l.cfg.DefaultPassword,
	})
	if err != nil {
		return err
	}

	l.userIDs[row] = user.ID
	stats.Users++
	return nil
}

func (l *Loader) loadMovieLine(row int, fields []string, stats *Stats) error {
	if len(fields) != 3 {
		return fmt.Errorf("want 3 fields, got %d", len(fields))
	}

	year, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return fmt.Errorf("year: %w", err)
	}

	movie, err := l.store.AddMovie(catalog.MovieInput{
		Title: strings.TrimSpace(fields[0]),
		Year:  year,
		URL:   strings.TrimSpace(fields[2]),
	})
	if err != nil {
		return err
	}

	l.movieIDs[row] = movie.ID
	stats.Movies++
	return nil
}

func (l *Loader) loadRatingLine(_ int, fields []string, stats *Stats) error {
	if len(fields) != 3 {
		return fmt.Errorf("want 3 fields, got %d", len(fields))
	}

	userRow, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return fmt.Errorf("user row: %w", err)
	}
	movieRow, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return fmt.Errorf("movie row: %w", err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}

	userID, ok := l.userIDs[userRow]
	if !ok {
		return fmt.Errorf("rating references unknown user row %d", userRow)
	}
	movieID, ok := l.movieIDs[movieRow]
	if !ok {
		return fmt.Errorf("rating references unknown movie row %d", movieRow)
	}

	if _, err := l.store.AddRating(userID, movieID, value); err != nil {
		return err
	}
	stats.Ratings++
	return nil
}

// synthesizeUsername builds a deterministic unique username from the name
// and the file row: "Leonard Hernandez" on row 1 becomes "lhernandez1".
func synthesizeUsername(first, last string, row int) string {
	initial := ""
	if first != "" {
		initial = strings.ToLower(first[:1])
	}
	return fmt.Sprintf("%s%s%d", initial, strings.ToLower(last), row)
}
