// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package distance computes the normalized pairwise dissimilarity between a
// reference user and every other user of a rating matrix.
//
// The raw measure is the L1 distance over co-rated items, rescaled by how
// thin the overlap is relative to the reference user's total activity:
//
//	distance(u, v) = sumAbsDiff(u, v) * rated(u) / common(u, v)
//
// Plain L1 distance favors pairs with very few but perfectly matching
// co-ratings; the multiplicative correction penalizes comparisons built on
// thin evidence. Pairs sharing MinCommon or fewer items have no defined
// distance at all.
//
// Because the caller restricts the matrix to the reference user's items
// before calling, the measure is not symmetric: distance(u, v) computed from
// u's item set generally differs from distance(v, u) computed from v's.
package distance

import (
	"fmt"
	"math"
	"sort"

	"github.com/groupwise/groupwise/internal/ratings"
)

// MinCommon is the exclusive lower bound on co-rated items for a defined
// distance: a pair needs strictly more than MinCommon shared items.
const MinCommon = 5

// Score is the distance from the reference user to one candidate user.
// When Defined is false the pair shared too few items and Value is NaN;
// undefined scores order after every defined score in both sort directions.
type Score struct {
	UserID  int
	Value   float64
	Defined bool
}

// Distances computes the distance from targetUser to every user of the
// matrix, targetUser included (its own distance is 0). The matrix should be
// restricted to the items the target rated; items the target did not rate
// never contribute either way.
func Distances(m *ratings.Matrix, targetUser int) ([]Score, error) {
	if !m.HasUser(targetUser) {
		return nil, fmt.Errorf("distance: target user %d not in rating set", targetUser)
	}
	targetRow, _ := m.Row(targetUser)

	targetRated := 0
	for _, v := range targetRow {
		if !ratings.IsMissing(v) {
			targetRated++
		}
	}
	if targetRated == 0 {
		return nil, fmt.Errorf("distance: target user %d has no ratings", targetUser)
	}

	scores := make([]Score, 0, len(m.Users()))
	for _, userID := range m.Users() {
		row, _ := m.Row(userID)

		common := 0
		sumDiff := 0.0
		for i, v := range row {
			if ratings.IsMissing(v) || ratings.IsMissing(targetRow[i]) {
				continue
			}
			common++
			sumDiff += math.Abs(v - targetRow[i])
		}

		if common <= MinCommon && userID != targetUser {
			scores = append(scores, Score{UserID: userID, Value: math.NaN()})
			continue
		}

		scores = append(scores, Score{
			UserID:  userID,
			Value:   sumDiff * float64(targetRated) / float64(common),
			Defined: true,
		})
	}

	return scores, nil
}

// SortAscending orders scores from nearest to farthest. Undefined scores go
// to the tail, so they are never picked as "similar" and are picked first
// when the tail is read backwards for "dissimilar". Ties break on ascending
// user ID to keep the order total and reproducible.
func SortAscending(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		switch {
		case a.Defined != b.Defined:
			return a.Defined
		case a.Defined && a.Value != b.Value:
			return a.Value < b.Value
		default:
			return a.UserID < b.UserID
		}
	})
}
