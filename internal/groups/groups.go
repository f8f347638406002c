// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package groups forms user groups with controlled similarity profiles from
// a rating corpus.
//
// The selector repeatedly samples candidate groups from a shrinking pool of
// users, rejecting candidates whose members share too few co-rated items,
// until the requested number of groups is produced or too many consecutive
// candidates were rejected. Rejection is ordinary control flow, not an
// error; only exhausting the rejection budget surfaces as
// ErrMaxInvalidIterations.
package groups

import (
	"errors"
	"fmt"
)

// Type labels how a group's members were selected relative to one another.
type Type string

const (
	// Similar groups the users nearest to a random pivot by rating distance.
	Similar Type = "similar"
	// Dissimilar groups the users farthest from a random pivot.
	Dissimilar Type = "dissimilar"
	// Random groups users drawn uniformly from the pivot's eligible pool.
	Random Type = "random"
)

// ParseType converts a strategy name to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Similar, Dissimilar, Random:
		return Type(s), nil
	default:
		return "", fmt.Errorf("groups: unknown strategy %q", s)
	}
}

// Types lists all selection strategies in their canonical batch order.
func Types() []Type {
	return []Type{Similar, Dissimilar, Random}
}

// Group is a set of unique user IDs plus the strategy that formed it. At
// formation time the members share at least the selector's minimum number
// of co-rated items.
type Group struct {
	Members []int `json:"members"`
	Type    Type  `json:"type"`
}

// ErrMaxInvalidIterations is returned when the selector rejects the maximum
// number of consecutive candidate groups for one (size, strategy) request.
// The condition is terminal for that request only; callers are expected to
// log it and continue with the next strategy or size.
var ErrMaxInvalidIterations = errors.New("groups: too many consecutive invalid candidate groups")
