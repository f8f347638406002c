// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package consensus turns a group's dense rating sub-matrix into one
// synthetic score per item.
//
// Every aggregator is a pure, stateless transform over a fully populated
// matrix (rows = group members, columns = the group's co-rated items). The
// result is independent of member order. A missing cell reaching an
// aggregator means the upstream co-rated filtering failed, and surfaces as
// an error rather than propagating NaNs.
package consensus

import (
	"errors"
	"fmt"

	"github.com/groupwise/groupwise/internal/ratings"
)

// Aggregator maps a group sub-matrix to one synthetic score per item.
type Aggregator interface {
	// Name returns the aggregation rule identifier (e.g. "least_misery").
	Name() string

	// Aggregate returns a score per item ID of the sub-matrix. It fails
	// when the sub-matrix contains a missing cell.
	Aggregate(sub *ratings.Matrix) (map[int]float64, error)
}

// Kind enumerates the defined aggregation rules.
type Kind int

const (
	// LeastMisery scores each item by the minimum rating across members.
	LeastMisery Kind = iota
	// Mean scores each item by the arithmetic mean across members.
	Mean
	// Multiplicative scores each item by the product across members. The
	// score grows with group size and is not normalized.
	Multiplicative
	// MostPleasure scores each item by the maximum rating across members.
	MostPleasure
	// BordaCount scores each item by the sum of per-member rank votes.
	BordaCount
	// Purity scores each item by liking discounted by disagreement.
	// Experimental.
	Purity
)

// String returns the rule identifier.
func (k Kind) String() string {
	switch k {
	case LeastMisery:
		return "least_misery"
	case Mean:
		return "mean"
	case Multiplicative:
		return "multiplicative"
	case MostPleasure:
		return "most_pleasure"
	case BordaCount:
		return "borda_count"
	case Purity:
		return "purity"
	default:
		return "unknown"
	}
}

// ParseKind converts a rule identifier to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("consensus: unknown aggregation rule %q", s)
}

// Kinds lists every defined aggregation rule.
func Kinds() []Kind {
	return []Kind{LeastMisery, Mean, Multiplicative, MostPleasure, BordaCount, Purity}
}

// New returns the aggregator for the given kind. Purity uses the reference
// rating bounds (1-10); use NewPurity for other corpora.
func New(k Kind) (Aggregator, error) {
	switch k {
	case LeastMisery:
		return leastMisery{}, nil
	case Mean:
		return mean{}, nil
	case Multiplicative:
		return multiplicative{}, nil
	case MostPleasure:
		return mostPleasure{}, nil
	case BordaCount:
		return bordaCount{}, nil
	case Purity:
		return NewPurity(1, 10), nil
	default:
		return nil, fmt.Errorf("consensus: unknown aggregation kind %d", k)
	}
}

// ErrMissingCell indicates a sub-matrix cell without a rating reached an
// aggregator, violating the co-rated precondition.
var ErrMissingCell = errors.New("consensus: missing cell in group sub-matrix")

// column extracts one dense item column, failing on missing cells.
func column(sub *ratings.Matrix, itemID int) ([]float64, error) {
	users := sub.Users()
	col := make([]float64, len(users))
	for i, u := range users {
		v := sub.Value(u, itemID)
		if ratings.IsMissing(v) {
			return nil, fmt.Errorf("%w: user %d item %d", ErrMissingCell, u, itemID)
		}
		col[i] = v
	}
	return col, nil
}
