// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package groupcache

import (
	"errors"
	"reflect"
	"testing"

	"github.com/groupwise/groupwise/internal/groups"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)

	key := Key{Seed: 42, NumGroups: 2, Size: 3, Strategy: groups.Similar}
	batch := []groups.Group{
		{Members: []int{1, 2, 3}, Type: groups.Similar},
		{Members: []int{4, 5, 9}, Type: groups.Similar},
	}

	if err := s.Put(key, batch); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, batch) {
		t.Errorf("Get() = %v, want %v", got, batch)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	key := Key{Seed: 1, NumGroups: 5, Size: 3, Strategy: groups.Random}
	if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestKeysAreDistinct(t *testing.T) {
	s := openTestStore(t)

	base := Key{Seed: 7, NumGroups: 1, Size: 3, Strategy: groups.Random}
	if err := s.Put(base, []groups.Group{{Members: []int{1, 2, 3}, Type: groups.Random}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	variants := []Key{
		{Seed: 8, NumGroups: 1, Size: 3, Strategy: groups.Random},
		{Seed: 7, NumGroups: 2, Size: 3, Strategy: groups.Random},
		{Seed: 7, NumGroups: 1, Size: 4, Strategy: groups.Random},
		{Seed: 7, NumGroups: 1, Size: 3, Strategy: groups.Dissimilar},
	}
	for _, k := range variants {
		if _, err := s.Get(k); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%+v) error = %v, want ErrNotFound", k, err)
		}
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)

	key := Key{Seed: 3, NumGroups: 1, Size: 2, Strategy: groups.Dissimilar}
	first := []groups.Group{{Members: []int{1, 2}, Type: groups.Dissimilar}}
	second := []groups.Group{{Members: []int{5, 6}, Type: groups.Dissimilar}}

	if err := s.Put(key, first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(key, second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("Get() = %v, want replacement %v", got, second)
	}
}
