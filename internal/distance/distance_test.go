// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package distance

import (
	"math"
	"testing"

	"github.com/groupwise/groupwise/internal/ratings"
)

// rate appends one rating per item with a constant offset from the item ID,
// so per-item differences between two users are easy to predict.
func rate(corpus []ratings.Rating, userID int, items []int, offset float64) []ratings.Rating {
	for _, it := range items {
		corpus = append(corpus, ratings.Rating{UserID: userID, ItemID: it, Value: float64(it%5+1) + offset})
	}
	return corpus
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func scoreFor(t *testing.T, scores []Score, userID int) Score {
	t.Helper()
	for _, s := range scores {
		if s.UserID == userID {
			return s
		}
	}
	t.Fatalf("no score for user %d", userID)
	return Score{}
}

func TestDistances(t *testing.T) {
	// Target user 1 rates items 1-8. User 2 shares 6 of them with a
	// constant difference of 1; user 3 shares only 5 (below the defined
	// threshold); user 4 matches the target exactly on all 8.
	var corpus []ratings.Rating
	corpus = rate(corpus, 1, seq(1, 8), 0)
	corpus = rate(corpus, 2, seq(1, 6), 1)
	corpus = rate(corpus, 3, seq(1, 5), 2)
	corpus = rate(corpus, 4, seq(1, 8), 0)

	m, err := ratings.NewMatrix(corpus)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	scores, err := Distances(m, 1)
	if err != nil {
		t.Fatalf("Distances() error = %v", err)
	}

	if got := scoreFor(t, scores, 1); !got.Defined || got.Value != 0 {
		t.Errorf("self distance = %+v, want defined 0", got)
	}

	// 6 common items, |diff| = 1 each, target rated 8: 6 * 8 / 6 = 8.
	if got := scoreFor(t, scores, 2); !got.Defined || got.Value != 8 {
		t.Errorf("distance to user 2 = %+v, want defined 8", got)
	}

	// Exactly 5 common items is not enough; the threshold is strict.
	if got := scoreFor(t, scores, 3); got.Defined || !math.IsNaN(got.Value) {
		t.Errorf("distance to user 3 = %+v, want undefined NaN", got)
	}

	if got := scoreFor(t, scores, 4); !got.Defined || got.Value != 0 {
		t.Errorf("distance to user 4 = %+v, want defined 0", got)
	}
}

func TestDistances_UnknownTarget(t *testing.T) {
	m, err := ratings.NewMatrix(rate(nil, 1, seq(1, 6), 0))
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}

	if _, err := Distances(m, 42); err == nil {
		t.Fatal("Distances() with unknown target: expected error")
	}
}

// The co-rated filtering step uses the target's item set, so the measure is
// asymmetric by construction: each direction rescales by its own target's
// activity. This pins the actual behavior on a fixed fixture.
func TestDistances_Asymmetry(t *testing.T) {
	var corpus []ratings.Rating
	corpus = rate(corpus, 1, seq(1, 12), 0) // heavy rater
	corpus = rate(corpus, 2, seq(1, 8), 1)  // shares 8 of user 1's 12 items

	fromOne, err := Distances(mustMatrix(t, ratings.FilterItems(corpus, ratings.ItemsRatedBy(corpus, 1))), 1)
	if err != nil {
		t.Fatalf("Distances(target=1) error = %v", err)
	}
	fromTwo, err := Distances(mustMatrix(t, ratings.FilterItems(corpus, ratings.ItemsRatedBy(corpus, 2))), 2)
	if err != nil {
		t.Fatalf("Distances(target=2) error = %v", err)
	}

	// From user 1: 8 common, diff 1 each, 12 rated items: 8 * 12 / 8 = 12.
	// From user 2: 8 common, diff 1 each, 8 rated items: 8 * 8 / 8 = 8.
	if got := scoreFor(t, fromOne, 2); got.Value != 12 {
		t.Errorf("distance(1 -> 2) = %v, want 12", got.Value)
	}
	if got := scoreFor(t, fromTwo, 1); got.Value != 8 {
		t.Errorf("distance(2 -> 1) = %v, want 8", got.Value)
	}
}

func TestSortAscending(t *testing.T) {
	scores := []Score{
		{UserID: 5, Value: math.NaN()},
		{UserID: 3, Value: 2.5, Defined: true},
		{UserID: 4, Value: math.NaN()},
		{UserID: 1, Value: 7, Defined: true},
		{UserID: 2, Value: 2.5, Defined: true},
	}

	SortAscending(scores)

	wantOrder := []int{2, 3, 1, 4, 5}
	for i, want := range wantOrder {
		if scores[i].UserID != want {
			t.Fatalf("position %d = user %d, want %d (full order %v)", i, scores[i].UserID, want, scores)
		}
	}
}

func mustMatrix(t *testing.T, corpus []ratings.Rating) *ratings.Matrix {
	t.Helper()
	m, err := ratings.NewMatrix(corpus)
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}
	return m
}
