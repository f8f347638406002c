// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package main is the entry point for the Groupwise batch engine.
//
// Groupwise forms user groups with controlled similarity profiles from a
// rating corpus, scores the groups under several consensus aggregation
// rules, and measures how well each rule's top picks match what individual
// members would choose or avoid.
//
// # Run Phases
//
// The engine runs in sequential phases:
//
//  1. Configuration: load settings from environment variables and config files (Koanf v2)
//  2. Ingestion: load the ratings CSV through DuckDB's read_csv_auto
//  3. Preparation: optional densest-subset restriction and random sampling
//  4. Formation: sample groups per size and strategy, validating member overlap
//  5. Evaluation: aggregate each group's ratings and score success@N / miss@N
//  6. Persistence: write results to DuckDB and print the per-strategy summary
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (GROUPWISE_* prefix)
//   - Config file (groupwise.yaml)
//   - Built-in defaults
//
// # Example Usage
//
// Evaluate all strategies and aggregators over a MovieLens-style CSV:
//
//	export GROUPWISE_DATASET_PATH=/data/ratings.csv
//	export GROUPWISE_GROUPS_SEED=42
//	./groupwise
//
// Persist results and reuse formed groups across runs:
//
//	export GROUPWISE_DATABASE_ENABLED=true
//	export GROUPWISE_DATABASE_PATH=/data/groupwise.duckdb
//	export GROUPWISE_CACHE_ENABLED=true
//	export GROUPWISE_CACHE_PATH=/data/groupcache
//	./groupwise
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/groupwise/groupwise/internal/config"
	"github.com/groupwise/groupwise/internal/groupcache"
	"github.com/groupwise/groupwise/internal/logging"
	"github.com/groupwise/groupwise/internal/runner"
	"github.com/groupwise/groupwise/internal/store"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)

	if err := cfg.CheckDatasetExists(); err != nil {
		logging.Fatal().Err(err).Msg("Ratings dataset not readable")
	}

	logging.Info().
		Str("dataset", cfg.Dataset.Path).
		Int64("seed", cfg.Groups.Seed).
		Ints("sizes", cfg.Groups.Sizes).
		Strs("strategies", cfg.Groups.Strategies).
		Strs("aggregators", cfg.Evaluate.Aggregators).
		Msg("Configuration loaded")

	// Cancel the run on SIGINT and SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Run failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := store.Open(ctx, databasePath(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	corpus, err := db.LoadRatings(ctx, cfg.Dataset.Path)
	if err != nil {
		return err
	}

	if cfg.Database.Enabled && cfg.Database.ExportMatrixPath != "" {
		if err := db.ExportMatrix(ctx, corpus, cfg.Database.ExportMatrixPath); err != nil {
			return err
		}
	}

	corpus = runner.PrepareCorpus(cfg, corpus, rand.New(rand.NewSource(cfg.Groups.Seed)))
	logging.Info().Int("ratings", len(corpus)).Msg("Corpus prepared")

	opts := []runner.Option{}
	if cfg.Database.Enabled {
		opts = append(opts, runner.WithSink(db))
	}
	if cfg.Cache.Enabled {
		cache, err := groupcache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing group cache")
			}
		}()
		opts = append(opts, runner.WithCache(cache))
	}

	report, err := runner.New(cfg, opts...).Run(ctx, corpus)
	if err != nil {
		return err
	}

	if cfg.Database.Enabled {
		summaries, err := db.SummarizeRun(ctx, report.RunID)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			logging.Info().
				Str("aggregator", s.Aggregator).
				Str("group_type", s.GroupType).
				Int("groups", s.Groups).
				Float64("avg_success_pct", s.AvgSuccessPct).
				Float64("avg_miss_pct", s.AvgMissPct).
				Msg("Run summary")
		}
	}

	return nil
}

// databasePath picks the DuckDB location: the configured file when
// persistence is enabled, otherwise in-memory.
func databasePath(cfg *config.Config) string {
	if cfg.Database.Enabled {
		return cfg.Database.Path
	}
	return ""
}
