// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package ratings defines the rating corpus, the dense user-item matrix,
// and the sampling utilities used to carve evaluation datasets out of a
// full corpus.
//
// A corpus is an immutable slice of (user, item, value) records loaded once
// per run. Matrices are built on demand from a corpus or sub-corpus and are
// never mutated in place; absent cells carry an explicit missing sentinel
// (NaN) that is distinguishable from every valid rating.
package ratings
