// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package ratings

import (
	"math"
)

// Missing is the sentinel stored in matrix cells with no rating.
// It compares unequal to every valid rating, including itself; use
// IsMissing to test for it.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a cell value is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Matrix is a dense user-by-item rating matrix. Row labels are the sorted
// distinct user IDs of the source corpus, column labels the sorted distinct
// item IDs. Cells hold the rating value or the missing sentinel.
//
// A Matrix is built from a corpus and never mutated afterwards.
type Matrix struct {
	users []int
	items []int

	rowIndex map[int]int
	colIndex map[int]int

	// cells is row-major: cells[row*len(items)+col].
	cells []float64
}

// NewMatrix builds a dense matrix from the given corpus. The result is
// deterministic for identical input regardless of record order. Returns
// ErrEmptyCorpus when the corpus holds no ratings, since the axis labels
// would be undefined.
func NewMatrix(corpus []Rating) (*Matrix, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	m := &Matrix{
		users: Users(corpus),
		items: Items(corpus),
	}

	m.rowIndex = make(map[int]int, len(m.users))
	for i, u := range m.users {
		m.rowIndex[u] = i
	}
	m.colIndex = make(map[int]int, len(m.items))
	for i, it := range m.items {
		m.colIndex[it] = i
	}

	m.cells = make([]float64, len(m.users)*len(m.items))
	for i := range m.cells {
		m.cells[i] = math.NaN()
	}
	for _, r := range corpus {
		m.cells[m.rowIndex[r.UserID]*len(m.items)+m.colIndex[r.ItemID]] = r.Value
	}

	return m, nil
}

// Users returns the sorted row labels. The caller must not modify the slice.
func (m *Matrix) Users() []int { return m.users }

// Items returns the sorted column labels. The caller must not modify the slice.
func (m *Matrix) Items() []int { return m.items }

// HasUser reports whether the user is a row of the matrix.
func (m *Matrix) HasUser(userID int) bool {
	_, ok := m.rowIndex[userID]
	return ok
}

// Value returns the cell for (userID, itemID), or the missing sentinel when
// the pair is absent or either label is unknown.
func (m *Matrix) Value(userID, itemID int) float64 {
	row, ok := m.rowIndex[userID]
	if !ok {
		return math.NaN()
	}
	col, ok := m.colIndex[itemID]
	if !ok {
		return math.NaN()
	}
	return m.cells[row*len(m.items)+col]
}

// Rated reports whether the user rated the item.
func (m *Matrix) Rated(userID, itemID int) bool {
	return !IsMissing(m.Value(userID, itemID))
}

// Row returns the dense row for the user, ordered by Items(). The second
// return is false when the user is not a row of the matrix. The caller must
// not modify the slice.
func (m *Matrix) Row(userID int) ([]float64, bool) {
	row, ok := m.rowIndex[userID]
	if !ok {
		return nil, false
	}
	return m.cells[row*len(m.items) : (row+1)*len(m.items)], true
}

// RatedCount returns the number of non-missing cells in the user's row.
func (m *Matrix) RatedCount(userID int) int {
	row, ok := m.Row(userID)
	if !ok {
		return 0
	}
	n := 0
	for _, v := range row {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}
