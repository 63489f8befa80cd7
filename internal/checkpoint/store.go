// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
)

const keyPrefix = "checkpoint/"

// ErrRegression is returned when a save would move a checkpoint backwards.
var ErrRegression = errors.New("checkpoint would move backwards")

// Checkpoint is the extraction position of one view log.
type Checkpoint struct {
	Stream    string    `json:"stream"`
	LastID    int64     `json:"last_id"`
	Rows      int64     `json:"rows"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists checkpoints in BadgerDB.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store. InMemory keeps nothing on disk.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func Open(cfg config.CheckpointConfig, logger zerolog.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("checkpoint path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = true
	}
	// The store holds a handful of keys.
	opts.MemTableSize = 8 << 20
	opts.ValueLogFileSize = 16 << 20
	opts.NumCompactors = 2
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "checkpoint").Logger(),
	}
	s.logger.Debug().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Checkpoint store opened")
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the checkpoint of stream. ok is false when none was saved.
func (s *Store) Get(stream string) (cp Checkpoint, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + stream))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("get checkpoint %s: %w", stream, err)
	}
	return cp, ok, nil
}

// LastID returns the saved position of stream, 0 when none.
func (s *Store) LastID(stream string) (int64, error) {
	cp, _, err := s.Get(stream)
	return cp.LastID, err
}

// Advance moves stream forward to lastID, adding rows to its running
// total. A lastID below the stored one is rejected with ErrRegression.
func (s *Store) Advance(stream string, lastID, rows int64) (Checkpoint, error) {
	var next Checkpoint
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + stream)
		var cur Checkpoint

		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &cur) }); err != nil {
				return err
			}
		}

		if lastID < cur.LastID {
			return fmt.Errorf("%w: %s from %d to %d", ErrRegression, stream, cur.LastID, lastID)
		}
		next = Checkpoint{
			Stream:    stream,
			LastID:    lastID,
			Rows:      cur.Rows + rows,
			UpdatedAt: time.Now().UTC(),
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(key, data))
	})
	if err != nil {
		return Checkpoint{}, fmt.Errorf("advance checkpoint %s: %w", stream, err)
	}
	return next, nil
}

// Reset forgets the checkpoint of stream so the next sync starts over.
func (s *Store) Reset(stream string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + stream))
	})
	if err != nil {
		return fmt.Errorf("reset checkpoint %s: %w", stream, err)
	}
	s.logger.Info().Str("stream", stream).Msg("Checkpoint reset")
	return nil
}

// All returns every saved checkpoint in key order.
func (s *Store) All() ([]Checkpoint, error) {
	var out []Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cp Checkpoint
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &cp) }); err != nil {
				return err
			}
			out = append(out, cp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return out, nil
}
