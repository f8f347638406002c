// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package groups

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/groupwise/groupwise/internal/ratings"
)

// denseCorpus gives every user a full rating over the same itemCount items,
// so any candidate group passes the co-rated check.
func denseCorpus(userCount, itemCount int) []ratings.Rating {
	var out []ratings.Rating
	for u := 1; u <= userCount; u++ {
		for it := 1; it <= itemCount; it++ {
			out = append(out, ratings.Rating{UserID: u, ItemID: it, Value: float64((u*it)%10 + 1)})
		}
	}
	return out
}

// sparseCorpus gives every user the same small item set, below the minimum
// co-rated threshold, so every candidate group is rejected.
func sparseCorpus(userCount, itemCount int) []ratings.Rating {
	var out []ratings.Rating
	for u := 1; u <= userCount; u++ {
		for it := 1; it <= itemCount; it++ {
			out = append(out, ratings.Rating{UserID: u, ItemID: it, Value: float64(it)})
		}
	}
	return out
}

func newTestSelector(corpus []ratings.Rating, seed int64, cfg SelectorConfig) *Selector {
	return NewSelector(corpus, rand.New(rand.NewSource(seed)), cfg, zerolog.Nop())
}

func TestSelect_Strategies(t *testing.T) {
	corpus := denseCorpus(30, 15)

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			s := newTestSelector(corpus, 1985, SelectorConfig{})

			got, err := s.Select(4, 3, typ)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if len(got) != 4 {
				t.Fatalf("Select() produced %d groups, want 4", len(got))
			}

			seen := make(map[int]bool)
			for _, g := range got {
				if g.Type != typ {
					t.Errorf("group type = %s, want %s", g.Type, typ)
				}
				if len(g.Members) != 3 {
					t.Errorf("group size = %d, want 3", len(g.Members))
				}
				for _, m := range g.Members {
					if seen[m] {
						t.Errorf("user %d reused across groups", m)
					}
					seen[m] = true
				}
			}
		})
	}
}

func TestSelect_DeterministicUnderSeed(t *testing.T) {
	corpus := denseCorpus(40, 20)

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			a, errA := newTestSelector(corpus, 7, SelectorConfig{}).Select(5, 3, typ)
			b, errB := newTestSelector(corpus, 7, SelectorConfig{}).Select(5, 3, typ)

			if (errA == nil) != (errB == nil) {
				t.Fatalf("error mismatch: %v vs %v", errA, errB)
			}
			if !reflect.DeepEqual(a, b) {
				t.Errorf("identical seeds produced different groups:\n%v\n%v", a, b)
			}
		})
	}
}

func TestSelect_NeverBelowMinimumOverlap(t *testing.T) {
	// Users rate staggered windows of items, so some candidate groups fall
	// below the overlap threshold and must never be emitted.
	var corpus []ratings.Rating
	for u := 1; u <= 24; u++ {
		for it := u; it < u+12; it++ {
			corpus = append(corpus, ratings.Rating{UserID: u, ItemID: it, Value: float64(it%10 + 1)})
		}
	}

	s := newTestSelector(corpus, 3, SelectorConfig{MinCoRatedItems: 10})

	got, err := s.Select(3, 2, Random)
	if err != nil && !errors.Is(err, ErrMaxInvalidIterations) {
		t.Fatalf("Select() error = %v", err)
	}
	for _, g := range got {
		if n := len(ratings.CoRatedItems(corpus, g.Members)); n < 10 {
			t.Errorf("group %v has %d co-rated items, want >= 10", g.Members, n)
		}
	}
}

func TestSelect_FailsAfterExactRejectionBound(t *testing.T) {
	// Every user rates the same 4 items: groups always have 4 co-rated
	// items, below the threshold of 10, so every candidate is rejected.
	corpus := sparseCorpus(20, 4)

	s := newTestSelector(corpus, 11, SelectorConfig{MaxConsecutiveInvalid: 5})

	got, err := s.Select(2, 2, Random)
	if !errors.Is(err, ErrMaxInvalidIterations) {
		t.Fatalf("Select() error = %v, want ErrMaxInvalidIterations", err)
	}
	if len(got) != 0 {
		t.Errorf("Select() produced %d groups, want 0", len(got))
	}
}

func TestSelect_RejectionCounterResetsOnAccept(t *testing.T) {
	// A dense corpus never rejects, so a tight rejection budget must not
	// trip across accepted groups.
	corpus := denseCorpus(20, 12)

	s := newTestSelector(corpus, 5, SelectorConfig{MaxConsecutiveInvalid: 1})

	got, err := s.Select(5, 2, Random)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("Select() produced %d groups, want 5", len(got))
	}
}

func TestSelect_SimilarExcludesThinOverlap(t *testing.T) {
	// Users 1-6 rate the same 12 items identically; user 7 shares only 3
	// items with them. Its distance to any pivot is undefined, so "similar"
	// groups must never include it.
	var corpus []ratings.Rating
	for u := 1; u <= 6; u++ {
		for it := 1; it <= 12; it++ {
			corpus = append(corpus, ratings.Rating{UserID: u, ItemID: it, Value: float64(it%10 + 1)})
		}
	}
	for it := 1; it <= 3; it++ {
		corpus = append(corpus, ratings.Rating{UserID: 7, ItemID: it, Value: 5})
	}

	s := newTestSelector(corpus, 21, SelectorConfig{})

	got, err := s.Select(1, 3, Similar)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, m := range got[0].Members {
		if m == 7 {
			t.Errorf("similar group %v includes user 7 with undefined distance", got[0].Members)
		}
	}
}

func TestSelect_InvalidArguments(t *testing.T) {
	s := newTestSelector(denseCorpus(10, 12), 1, SelectorConfig{})

	if _, err := s.Select(1, 1, Random); err == nil {
		t.Error("Select() with size 1: expected error")
	}
	if _, err := s.Select(0, 3, Random); err == nil {
		t.Error("Select() with zero groups: expected error")
	}
}
