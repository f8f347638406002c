// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package groups

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/groupwise/groupwise/internal/distance"
	"github.com/groupwise/groupwise/internal/metrics"
	"github.com/groupwise/groupwise/internal/ratings"
)

// SelectorConfig tunes group formation.
type SelectorConfig struct {
	// MinCoRatedItems is the minimum number of items every member of an
	// accepted group must have rated.
	MinCoRatedItems int

	// MaxConsecutiveInvalid is the number of consecutive rejected
	// candidates after which a (size, strategy) request fails.
	MaxConsecutiveInvalid int
}

// DefaultSelectorConfig returns the reference thresholds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MinCoRatedItems:       10,
		MaxConsecutiveInvalid: 20,
	}
}

// Selector samples groups of users from a rating corpus. All randomness is
// drawn from the caller-owned rng, so a fixed seed reproduces the same group
// membership sequences. A Selector is not safe for concurrent use.
type Selector struct {
	corpus []ratings.Rating
	rng    *rand.Rand
	cfg    SelectorConfig
	log    zerolog.Logger

	// userItems caches each user's sorted rated item set.
	userItems map[int][]int
}

// NewSelector creates a selector over the corpus. Zero config fields fall
// back to the defaults.
func NewSelector(corpus []ratings.Rating, rng *rand.Rand, cfg SelectorConfig, log zerolog.Logger) *Selector {
	if cfg.MinCoRatedItems <= 0 {
		cfg.MinCoRatedItems = DefaultSelectorConfig().MinCoRatedItems
	}
	if cfg.MaxConsecutiveInvalid <= 0 {
		cfg.MaxConsecutiveInvalid = DefaultSelectorConfig().MaxConsecutiveInvalid
	}

	userItems := make(map[int][]int)
	itemSets := make(map[int]map[int]struct{})
	for _, r := range corpus {
		if itemSets[r.UserID] == nil {
			itemSets[r.UserID] = make(map[int]struct{})
		}
		itemSets[r.UserID][r.ItemID] = struct{}{}
	}
	for userID, set := range itemSets {
		items := make([]int, 0, len(set))
		for it := range set {
			items = append(items, it)
		}
		sort.Ints(items)
		userItems[userID] = items
	}

	return &Selector{
		corpus:    corpus,
		rng:       rng,
		cfg:       cfg,
		log:       log,
		userItems: userItems,
	}
}

// candidate is the outcome of one sampling iteration: either a member set to
// validate or nothing usable (too few eligible users around the pivot).
type candidate struct {
	members []int
	ok      bool
}

// Select produces numGroups groups of the requested size using the given
// strategy. Accepted members are removed from the working pool, so no user
// appears in two groups of the same call.
//
// When the selector rejects cfg.MaxConsecutiveInvalid candidates in a row it
// returns the groups accepted so far together with ErrMaxInvalidIterations.
func (s *Selector) Select(numGroups, size int, typ Type) ([]Group, error) {
	if size < 2 {
		return nil, fmt.Errorf("groups: size %d below minimum of 2", size)
	}
	if numGroups <= 0 {
		return nil, fmt.Errorf("groups: numGroups %d must be positive", numGroups)
	}

	pool := ratings.Users(s.corpus)
	groups := make([]Group, 0, numGroups)
	consecutiveInvalid := 0

	for len(groups) < numGroups {
		if len(pool) < size {
			return groups, fmt.Errorf("groups: pool exhausted after %d of %d groups: %w",
				len(groups), numGroups, ErrMaxInvalidIterations)
		}

		cand := s.sample(pool, size, typ)

		if cand.ok && s.validate(cand.members) {
			groups = append(groups, Group{Members: cand.members, Type: typ})
			consecutiveInvalid = 0
			pool = removeAll(pool, cand.members)
			metrics.GroupsAccepted.WithLabelValues(string(typ)).Inc()
			s.log.Debug().
				Str("strategy", string(typ)).
				Ints("members", cand.members).
				Int("produced", len(groups)).
				Msg("group accepted")
			continue
		}

		consecutiveInvalid++
		metrics.GroupsRejected.WithLabelValues(string(typ)).Inc()
		if consecutiveInvalid >= s.cfg.MaxConsecutiveInvalid {
			return groups, fmt.Errorf("groups: %d consecutive rejections for size=%d strategy=%s: %w",
				consecutiveInvalid, size, typ, ErrMaxInvalidIterations)
		}
	}

	return groups, nil
}

// sample picks one candidate member set from the pool using the strategy.
//
// Every strategy starts from a random pivot and narrows the pool to users
// sharing at least one rated item with it; the similarity strategies then
// rank that pool by distance to the pivot.
func (s *Selector) sample(pool []int, size int, typ Type) candidate {
	pivot := pool[s.rng.Intn(len(pool))]

	eligible := s.eligibleAround(pivot, pool)
	if len(eligible) < size {
		if typ != Random || len(eligible) < 2 {
			return candidate{}
		}
		// The random strategy accepts a smaller pool and takes everyone.
		return candidate{members: append([]int(nil), eligible...), ok: true}
	}

	switch typ {
	case Random:
		members := make([]int, size)
		perm := s.rng.Perm(len(eligible))
		for i := 0; i < size; i++ {
			members[i] = eligible[perm[i]]
		}
		sort.Ints(members)
		return candidate{members: members, ok: true}

	case Similar, Dissimilar:
		scores, err := s.distancesFrom(pivot, eligible)
		if err != nil {
			return candidate{}
		}
		distance.SortAscending(scores)

		members := make([]int, 0, size)
		if typ == Similar {
			// The pivot is always a member; the rest are the nearest users
			// with a defined distance. Undefined distances never qualify
			// as similar.
			members = append(members, pivot)
			for _, sc := range scores {
				if len(members) == size {
					break
				}
				if sc.UserID == pivot || !sc.Defined {
					continue
				}
				members = append(members, sc.UserID)
			}
			if len(members) < size {
				return candidate{}
			}
		} else {
			// Farthest first, reading the ascending order from the tail.
			// Undefined distances sit at the tail and are taken first.
			for i := len(scores) - 1; i >= len(scores)-size; i-- {
				members = append(members, scores[i].UserID)
			}
		}
		sort.Ints(members)
		return candidate{members: members, ok: true}

	default:
		return candidate{}
	}
}

// validate applies the minimum-overlap test: the items rated by every
// candidate member must number at least MinCoRatedItems.
func (s *Selector) validate(members []int) bool {
	return len(ratings.CoRatedItems(s.corpus, members)) >= s.cfg.MinCoRatedItems
}

// eligibleAround returns the pool users sharing at least one rated item with
// the pivot, pivot included. The pool is already sorted, so the result is
// deterministic.
func (s *Selector) eligibleAround(pivot int, pool []int) []int {
	pivotItems := make(map[int]struct{}, len(s.userItems[pivot]))
	for _, it := range s.userItems[pivot] {
		pivotItems[it] = struct{}{}
	}

	eligible := make([]int, 0, len(pool))
	for _, u := range pool {
		if u == pivot {
			eligible = append(eligible, u)
			continue
		}
		for _, it := range s.userItems[u] {
			if _, ok := pivotItems[it]; ok {
				eligible = append(eligible, u)
				break
			}
		}
	}
	return eligible
}

// distancesFrom ranks the eligible users by distance to the pivot over the
// pivot's rated items.
func (s *Selector) distancesFrom(pivot int, eligible []int) ([]distance.Score, error) {
	sub := ratings.FilterItems(ratings.FilterUsers(s.corpus, eligible), s.userItems[pivot])
	m, err := ratings.NewMatrix(sub)
	if err != nil {
		return nil, err
	}
	metrics.DistanceComputations.Inc()
	return distance.Distances(m, pivot)
}

// removeAll returns pool without the given members, preserving order.
func removeAll(pool, members []int) []int {
	drop := make(map[int]struct{}, len(members))
	for _, m := range members {
		drop[m] = struct{}{}
	}
	out := pool[:0]
	for _, u := range pool {
		if _, ok := drop[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
