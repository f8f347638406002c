// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package ratings

import (
	"math/rand"
	"sort"
)

// Sample returns a sub-corpus covering a random percentage of the corpus
// users and items. Percentages at or below zero yield nil; at or above one,
// the corpus itself. All randomness is drawn from rng, so a fixed seed
// reproduces the same sample.
func Sample(corpus []Rating, percentage float64, rng *rand.Rand) []Rating {
	if percentage <= 0 {
		return nil
	}
	if percentage >= 1 {
		return corpus
	}

	users := Users(corpus)
	items := Items(corpus)

	sampledUsers := sampleIDs(users, int(float64(len(users))*percentage), rng)
	sampledItems := sampleIDs(items, int(float64(len(items))*percentage), rng)

	return FilterItems(FilterUsers(corpus, sampledUsers), sampledItems)
}

// Densest returns the sub-corpus of the topItems most-rated items and, among
// their ratings, the topUsers users with the most ratings. This concentrates
// the corpus on its densest region so that group formation has enough
// co-rated items to work with.
func Densest(corpus []Rating, topUsers, topItems int) []Rating {
	itemCounts := make(map[int]int)
	for _, r := range corpus {
		itemCounts[r.ItemID]++
	}
	bestItems := topKeysByCount(itemCounts, topItems)

	onBestItems := FilterItems(corpus, bestItems)

	userCounts := make(map[int]int)
	for _, r := range onBestItems {
		userCounts[r.UserID]++
	}
	bestUsers := topKeysByCount(userCounts, topUsers)

	return FilterUsers(onBestItems, bestUsers)
}

// DensestPercentage is Densest with the user and item counts expressed as a
// fraction of the corpus totals. Percentages at or below zero yield nil; at
// or above one, the corpus itself.
func DensestPercentage(corpus []Rating, percentage float64) []Rating {
	if percentage <= 0 {
		return nil
	}
	if percentage >= 1 {
		return corpus
	}

	numUsers := int(float64(len(Users(corpus))) * percentage)
	numItems := int(float64(len(Items(corpus))) * percentage)
	return Densest(corpus, numUsers, numItems)
}

// sampleIDs draws n distinct IDs from the sorted candidates without
// replacement. Iterating candidates in sorted order keeps the draw
// deterministic for a given rng state.
func sampleIDs(candidates []int, n int, rng *rand.Rand) []int {
	if n >= len(candidates) {
		return candidates
	}

	perm := rng.Perm(len(candidates))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[perm[i]]
	}
	sort.Ints(out)
	return out
}

// topKeysByCount returns the n keys with the highest counts. Ties break on
// ascending key so the result is deterministic.
func topKeysByCount(counts map[int]int, n int) []int {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if n < len(keys) {
		keys = keys[:n]
	}
	sorted := append([]int(nil), keys...)
	sort.Ints(sorted)
	return sorted
}
