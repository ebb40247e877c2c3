// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package persist stores catalog snapshots in BadgerDB.
//
// The persistence contract is whole-state only: a save serializes the
// complete snapshot (users, username index, movies, rating log, counters)
// under a single key, and a load replaces the store's entire state. There is
// no partial or incremental persistence and no transaction semantics beyond
// the atomicity of a single Badger write.
package persist

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Badger keys for the snapshot and its metadata.
const (
	snapshotKey = "catalog:snapshot"
	metaKey     = "catalog:snapshot_meta"
)

// ErrNoSnapshot indicates no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no catalog snapshot stored")

// Meta describes the stored snapshot.
type Meta struct {
	SavedAt time.Time `json:"saved_at"`
	Users   int       `json:"users"`
	Movies  int       `json:"movies"`
	Ratings int       `json:"ratings"`
}

// SnapshotStore persists catalog snapshots in a Badger database.
type SnapshotStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) a Badger database at path. An empty path opens an
// in-memory database, which tests use.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, logger zerolog.Logger) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logger is noisy; we log at this layer
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	return &SnapshotStore{
		db:     db,
		logger: logger.With().Str("component", "persist").Logger(),
	}, nil
}

// Close closes the underlying database.
func (p *SnapshotStore) Close() error {
	return p.db.Close()
}

// Save serializes the snapshot and writes it, replacing any prior snapshot.
func (p *SnapshotStore) Save(snap *catalog.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	meta, err := json.Marshal(Meta{
		SavedAt: time.Now().UTC(),
		Users:   len(snap.Users),
		Movies:  len(snap.Movies),
		Ratings: len(snap.Ratings),
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}

	err = p.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotKey), data); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		return txn.Set([]byte(metaKey), meta)
	})
	if err != nil {
		return err
	}

	p.logger.Info().
		Int("users", len(snap.Users)).
		Int("movies", len(snap.Movies)).
		Int("ratings", len(snap.Ratings)).
		Int("bytes", len(data)).
		Msg("catalog snapshot saved")

	return nil
}

// Load reads and deserializes the stored snapshot.
// Returns ErrNoSnapshot when nothing has been saved yet.
func (p *SnapshotStore) Load() (*catalog.Snapshot, error) {
	var snap catalog.Snapshot

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// LoadMeta reads the stored snapshot's metadata without deserializing the
// snapshot itself. Returns ErrNoSnapshot when nothing has been saved.
func (p *SnapshotStore) LoadMeta() (*Meta, error) {
	var meta Meta

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("get snapshot meta: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}

	return &meta, nil
}
