// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package store handles DuckDB-backed dataset ingestion and result
// persistence.
//
// DuckDB does the heavy lifting on the analytics side: CSV ingestion runs
// through read_csv_auto and matrix export through COPY with PIVOT, both
// far faster than row-at-a-time processing in Go.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB database/sql driver

	"github.com/groupwise/groupwise/internal/evaluate"
	"github.com/groupwise/groupwise/internal/logging"
	"github.com/groupwise/groupwise/internal/metrics"
	"github.com/groupwise/groupwise/internal/ratings"
)

// Store wraps a DuckDB database holding ratings and evaluation results.
type Store struct {
	db *sql.DB
}

// Open opens the DuckDB database at path; empty path means in-memory.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("store: open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logging.Debug().Str("path", path).Msg("duckdb store opened")
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS results (
    run_id      VARCHAR NOT NULL,
    aggregator  VARCHAR NOT NULL,
    group_type  VARCHAR NOT NULL,
    group_size  INTEGER NOT NULL,
    success_pct DOUBLE NOT NULL,
    miss_pct    DOUBLE NOT NULL,
    created_at  TIMESTAMP NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create results table: %w", err)
	}
	return nil
}

// quoteLiteral escapes a string for embedding as a single-quoted SQL
// literal. DuckDB does not accept bound parameters inside read_csv_auto
// and COPY targets.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// LoadRatings ingests a MovieLens-style ratings CSV with userId, movieId
// and rating columns (header required, order detected by name). Extra
// columns such as timestamp are ignored.
func (s *Store) LoadRatings(ctx context.Context, csvPath string) ([]ratings.Rating, error) {
	query := fmt.Sprintf(
		`SELECT userId, movieId, rating FROM read_csv_auto(%s) ORDER BY userId, movieId`,
		quoteLiteral(csvPath))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: read ratings csv %s: %w", csvPath, err)
	}
	defer rows.Close()

	var corpus []ratings.Rating
	for rows.Next() {
		var r ratings.Rating
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value); err != nil {
			return nil, fmt.Errorf("store: scan rating row: %w", err)
		}
		corpus = append(corpus, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate ratings: %w", err)
	}

	metrics.RatingsLoaded.Set(float64(len(corpus)))
	logging.Info().Int("ratings", len(corpus)).Str("path", csvPath).Msg("ratings loaded")
	return corpus, nil
}

// ExportMatrix writes the corpus as a dense user-by-item CSV matrix.
// Missing cells are left empty.
func (s *Store) ExportMatrix(ctx context.Context, corpus []ratings.Rating, outPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`CREATE OR REPLACE TEMP TABLE export_ratings (user_id INTEGER, item_id INTEGER, rating DOUBLE)`); err != nil {
		return fmt.Errorf("store: create export table: %w", err)
	}

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO export_ratings (user_id, item_id, rating) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare export insert: %w", err)
	}
	defer insert.Close()

	for _, r := range corpus {
		if _, err := insert.ExecContext(ctx, r.UserID, r.ItemID, r.Value); err != nil {
			return fmt.Errorf("store: insert export rating: %w", err)
		}
	}

	copyStmt := fmt.Sprintf(
		`COPY (SELECT * FROM (PIVOT export_ratings ON item_id USING first(rating) GROUP BY user_id) ORDER BY user_id) TO %s (HEADER, DELIMITER ',')`,
		quoteLiteral(outPath))
	if _, err := tx.ExecContext(ctx, copyStmt); err != nil {
		return fmt.Errorf("store: copy matrix to %s: %w", outPath, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit export: %w", err)
	}

	logging.Info().Str("path", outPath).Msg("rating matrix exported")
	return nil
}

// SaveResults persists one run's evaluation results.
func (s *Store) SaveResults(ctx context.Context, runID string, results []evaluate.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO results (run_id, aggregator, group_type, group_size, success_pct, miss_pct, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare results insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			runID, r.Aggregator, string(r.GroupType), r.GroupSize,
			r.SuccessPct, r.MissPct, now); err != nil {
			return fmt.Errorf("store: insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit results: %w", err)
	}
	return nil
}

// RunSummary aggregates one run's results per aggregator and group type.
type RunSummary struct {
	Aggregator    string
	GroupType     string
	Groups        int
	AvgSuccessPct float64
	AvgMissPct    float64
}

// SummarizeRun reports averaged success and miss percentages for a run,
// grouped by aggregator and group type.
func (s *Store) SummarizeRun(ctx context.Context, runID string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT aggregator, group_type, COUNT(*), AVG(success_pct), AVG(miss_pct)
FROM results
WHERE run_id = ?
GROUP BY aggregator, group_type
ORDER BY aggregator, group_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: summarize run: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.Aggregator, &rs.GroupType, &rs.Groups, &rs.AvgSuccessPct, &rs.AvgMissPct); err != nil {
			return nil, fmt.Errorf("store: scan summary row: %w", err)
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate summary: %w", err)
	}
	return out, nil
}
