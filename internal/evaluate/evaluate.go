// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package evaluate measures how well a group's consensus ranking predicts
// what each member would individually prefer or reject.
//
// For every aggregation rule, the engine builds the group's consensus model
// over its co-rated items, then checks each member: success@N fires when the
// model's top-N items intersect the member's own top-N, miss@N when they
// intersect the member's bottom-N. Percentages average the per-member
// indicators.
//
// Top and bottom selections order by score in the relevant direction;
// boundary ties resolve by ascending item ID, so the selection is stable and
// reproducible.
package evaluate

import (
	"fmt"
	"sort"

	"github.com/groupwise/groupwise/internal/consensus"
	"github.com/groupwise/groupwise/internal/groups"
	"github.com/groupwise/groupwise/internal/ratings"
)

// DefaultTopN is the reference cutoff for success/miss checks.
const DefaultTopN = 3

// Result reports one aggregation rule's predictive quality for one group.
type Result struct {
	// Aggregator is the aggregation rule identifier.
	Aggregator string `json:"aggregator"`

	// GroupType is the strategy that formed the group.
	GroupType groups.Type `json:"group_type"`

	// GroupSize is the number of members.
	GroupSize int `json:"group_size"`

	// SuccessPct is the percentage of members whose personal top-N
	// intersects the consensus top-N.
	SuccessPct float64 `json:"success_pct"`

	// MissPct is the percentage of members whose personal bottom-N
	// intersects the consensus top-N.
	MissPct float64 `json:"miss_pct"`
}

// Engine scores consensus models against individual member rankings.
type Engine struct {
	topN int
}

// New creates an evaluation engine; topN values below one fall back to
// DefaultTopN.
func New(topN int) *Engine {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Engine{topN: topN}
}

// Evaluate runs every aggregator against the group and returns one Result
// per aggregator, in aggregator order.
//
// The corpus is restricted to the group's members and co-rated items first,
// which guarantees the aggregators a fully dense sub-matrix.
func (e *Engine) Evaluate(corpus []ratings.Rating, g groups.Group, aggs []consensus.Aggregator) ([]Result, error) {
	if len(g.Members) < 2 {
		return nil, fmt.Errorf("evaluate: group of %d members below minimum of 2", len(g.Members))
	}

	shared := ratings.CoRatedItems(corpus, g.Members)
	if len(shared) < e.topN {
		return nil, fmt.Errorf("evaluate: group %v has %d co-rated items, need at least %d",
			g.Members, len(shared), e.topN)
	}

	sub, err := ratings.NewMatrix(ratings.FilterItems(ratings.FilterUsers(corpus, g.Members), shared))
	if err != nil {
		return nil, fmt.Errorf("evaluate: build group sub-matrix: %w", err)
	}

	results := make([]Result, 0, len(aggs))
	for _, agg := range aggs {
		model, err := agg.Aggregate(sub)
		if err != nil {
			return nil, fmt.Errorf("evaluate: aggregate %s: %w", agg.Name(), err)
		}
		consensusTop := topN(model, e.topN, descending)

		successes, misses := 0, 0
		for _, member := range g.Members {
			personal := memberScores(sub, member)
			if intersects(consensusTop, topN(personal, e.topN, descending)) {
				successes++
			}
			if intersects(consensusTop, topN(personal, e.topN, ascending)) {
				misses++
			}
		}

		n := float64(len(g.Members))
		results = append(results, Result{
			Aggregator: agg.Name(),
			GroupType:  g.Type,
			GroupSize:  len(g.Members),
			SuccessPct: float64(successes) / n * 100,
			MissPct:    float64(misses) / n * 100,
		})
	}

	return results, nil
}

// memberScores returns one member's ratings over the sub-matrix items.
func memberScores(sub *ratings.Matrix, userID int) map[int]float64 {
	scores := make(map[int]float64, len(sub.Items()))
	for _, it := range sub.Items() {
		scores[it] = sub.Value(userID, it)
	}
	return scores
}

type direction bool

const (
	descending direction = true
	ascending  direction = false
)

// topN selects the n best item IDs of a score map in the given direction.
// Ties break on ascending item ID.
func topN(scores map[int]float64, n int, dir direction) map[int]struct{} {
	items := make([]int, 0, len(scores))
	for it := range scores {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := scores[items[i]], scores[items[j]]
		if a != b {
			if dir == descending {
				return a > b
			}
			return a < b
		}
		return items[i] < items[j]
	})

	if n > len(items) {
		n = len(items)
	}
	picked := make(map[int]struct{}, n)
	for _, it := range items[:n] {
		picked[it] = struct{}{}
	}
	return picked
}

func intersects(a, b map[int]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
