// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package ratings

import (
	"errors"
	"sort"
)

// Rating is a single user-item rating record. Immutable once loaded.
type Rating struct {
	// UserID is the integer identifier of the rating user.
	UserID int `json:"user_id"`

	// ItemID is the integer identifier of the rated item.
	ItemID int `json:"item_id"`

	// Value is the bounded numeric score (1-10 in the reference corpus).
	Value float64 `json:"value"`
}

// ErrEmptyCorpus is returned when an operation that needs axis labels is
// handed a corpus with no ratings.
var ErrEmptyCorpus = errors.New("ratings: empty corpus")

// Users returns the sorted distinct user IDs present in the corpus.
func Users(corpus []Rating) []int {
	seen := make(map[int]struct{}, len(corpus))
	for _, r := range corpus {
		seen[r.UserID] = struct{}{}
	}
	return sortedKeys(seen)
}

// Items returns the sorted distinct item IDs present in the corpus.
func Items(corpus []Rating) []int {
	seen := make(map[int]struct{}, len(corpus))
	for _, r := range corpus {
		seen[r.ItemID] = struct{}{}
	}
	return sortedKeys(seen)
}

// FilterUsers returns the sub-corpus restricted to the given users.
// Input order is preserved.
func FilterUsers(corpus []Rating, users []int) []Rating {
	keep := make(map[int]struct{}, len(users))
	for _, u := range users {
		keep[u] = struct{}{}
	}

	out := make([]Rating, 0, len(corpus))
	for _, r := range corpus {
		if _, ok := keep[r.UserID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterItems returns the sub-corpus restricted to the given items.
// Input order is preserved.
func FilterItems(corpus []Rating, items []int) []Rating {
	keep := make(map[int]struct{}, len(items))
	for _, it := range items {
		keep[it] = struct{}{}
	}

	out := make([]Rating, 0, len(corpus))
	for _, r := range corpus {
		if _, ok := keep[r.ItemID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ItemsRatedBy returns the sorted item IDs rated by the given user.
func ItemsRatedBy(corpus []Rating, userID int) []int {
	seen := make(map[int]struct{})
	for _, r := range corpus {
		if r.UserID == userID {
			seen[r.ItemID] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// CoRatedItems returns the sorted item IDs rated by every one of the given
// users. An empty user list yields an empty result.
func CoRatedItems(corpus []Rating, users []int) []int {
	if len(users) == 0 {
		return nil
	}

	members := make(map[int]struct{}, len(users))
	for _, u := range users {
		members[u] = struct{}{}
	}

	// Count distinct raters per item among the members.
	raters := make(map[int]map[int]struct{})
	for _, r := range corpus {
		if _, ok := members[r.UserID]; !ok {
			continue
		}
		if raters[r.ItemID] == nil {
			raters[r.ItemID] = make(map[int]struct{})
		}
		raters[r.ItemID][r.UserID] = struct{}{}
	}

	shared := make(map[int]struct{})
	for itemID, who := range raters {
		if len(who) == len(members) {
			shared[itemID] = struct{}{}
		}
	}
	return sortedKeys(shared)
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
