// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package groupcache persists formed groups in BadgerDB so repeated runs
// over the same corpus and seed skip the expensive formation phase.
package groupcache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/groupwise/groupwise/internal/groups"
	"github.com/groupwise/groupwise/internal/logging"
)

// ErrNotFound is returned when no cached groups exist for a key.
var ErrNotFound = errors.New("groupcache: not found")

const groupKeyPrefix = "groups:"

// Key identifies one cached batch of groups. Seed and configuration pin
// the batch to the exact formation run that produced it.
type Key struct {
	Seed      int64
	NumGroups int
	Size      int
	Strategy  groups.Type
}

func (k Key) encode() []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d:%s", groupKeyPrefix, k.Seed, k.NumGroups, k.Size, k.Strategy))
}

// Store is a BadgerDB-backed group cache.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("groupcache: open %s: %w", path, err)
	}
	logging.Debug().Str("path", path).Msg("group cache opened")
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a batch of groups under the key, replacing any previous
// batch.
func (s *Store) Put(key Key, batch []groups.Group) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("groupcache: marshal groups: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key.encode(), data); err != nil {
			return fmt.Errorf("groupcache: set: %w", err)
		}
		return nil
	})
}

// Get retrieves a batch of groups; ErrNotFound when the key was never
// stored.
func (s *Store) Get(key Key) ([]groups.Group, error) {
	var batch []groups.Group

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.encode())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("groupcache: get: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &batch)
		})
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}
