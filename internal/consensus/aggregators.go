// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package consensus

import (
	"fmt"
	"math"
	"sort"

	"github.com/groupwise/groupwise/internal/ratings"
)

type leastMisery struct{}

func (leastMisery) Name() string { return "least_misery" }

// Aggregate scores each item by its minimum rating, protecting the group
// against any member's strong dislike.
func (leastMisery) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	return perColumn(sub, func(col []float64) float64 {
		low := col[0]
		for _, v := range col[1:] {
			if v < low {
				low = v
			}
		}
		return low
	})
}

type mean struct{}

func (mean) Name() string { return "mean" }

// Aggregate scores each item by its arithmetic mean, the utilitarian
// baseline.
func (mean) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	return perColumn(sub, func(col []float64) float64 {
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		return sum / float64(len(col))
	})
}

type multiplicative struct{}

func (multiplicative) Name() string { return "multiplicative" }

// Aggregate scores each item by the product of its ratings, amplifying
// unanimous high scores.
func (multiplicative) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	return perColumn(sub, func(col []float64) float64 {
		prod := 1.0
		for _, v := range col {
			prod *= v
		}
		return prod
	})
}

type mostPleasure struct{}

func (mostPleasure) Name() string { return "most_pleasure" }

// Aggregate scores each item by its maximum rating, ignoring dissent.
func (mostPleasure) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	return perColumn(sub, func(col []float64) float64 {
		high := col[0]
		for _, v := range col[1:] {
			if v > high {
				high = v
			}
		}
		return high
	})
}

type bordaCount struct{}

func (bordaCount) Name() string { return "borda_count" }

// Aggregate sums per-member rank votes: each member ranks their own ratings
// ascending (rank 1 = least liked), tied ratings receive the average rank of
// the tied block, and an item's score is the sum of its rank across members.
// This captures ordinal preference rather than raw magnitude.
func (bordaCount) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	items := sub.Items()
	scores := make(map[int]float64, len(items))
	for _, it := range items {
		scores[it] = 0
	}

	for _, userID := range sub.Users() {
		row, _ := sub.Row(userID)
		for i, v := range row {
			if ratings.IsMissing(v) {
				return nil, fmt.Errorf("%w: user %d item %d", ErrMissingCell, userID, items[i])
			}
		}
		ranks := averageRanks(row)
		for i, it := range items {
			scores[it] += ranks[i]
		}
	}
	return scores, nil
}

// averageRanks assigns ascending 1-based ranks with average tie handling.
func averageRanks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		// Ranks i+1..j+1 share the block; every tied value gets the mean.
		avg := float64(i+1+j+1) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// purity scores item-level agreement: how strongly the group likes an item,
// discounted by how much the members disagree about it.
//
//	purity = (mean / max) * (1 - stddev / maxStddev)
//
// where maxStddev = (max - min) / 2 is the largest possible population
// standard deviation for ratings bounded in [min, max]. Scores land in
// [0, 1] for any group size. Experimental: this replaces an earlier
// formulation whose disagreement term vanished as group size grew.
type purity struct {
	minRating float64
	maxRating float64
}

// NewPurity returns a purity aggregator for ratings bounded in
// [minRating, maxRating].
func NewPurity(minRating, maxRating float64) Aggregator {
	return purity{minRating: minRating, maxRating: maxRating}
}

func (purity) Name() string { return "purity" }

func (p purity) Aggregate(sub *ratings.Matrix) (map[int]float64, error) {
	maxStddev := (p.maxRating - p.minRating) / 2
	return perColumn(sub, func(col []float64) float64 {
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		m := sum / float64(len(col))

		variance := 0.0
		for _, v := range col {
			variance += (v - m) * (v - m)
		}
		stddev := math.Sqrt(variance / float64(len(col)))

		return (m / p.maxRating) * (1 - stddev/maxStddev)
	})
}

// perColumn applies a reducer to every dense item column.
func perColumn(sub *ratings.Matrix, reduce func([]float64) float64) (map[int]float64, error) {
	scores := make(map[int]float64, len(sub.Items()))
	for _, it := range sub.Items() {
		col, err := column(sub, it)
		if err != nil {
			return nil, err
		}
		scores[it] = reduce(col)
	}
	return scores, nil
}
