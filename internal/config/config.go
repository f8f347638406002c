// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package config defines the Groupwise configuration structure and its
// layered loading: struct defaults, optional YAML file, environment
// variables.
package config

import (
	"fmt"
	"os"

	"github.com/groupwise/groupwise/internal/consensus"
	"github.com/groupwise/groupwise/internal/groups"
	"github.com/groupwise/groupwise/internal/logging"
)

// Config is the root configuration for a Groupwise run.
type Config struct {
	Dataset  DatasetConfig  `koanf:"dataset"`
	Groups   GroupsConfig   `koanf:"groups"`
	Evaluate EvaluateConfig `koanf:"evaluate"`
	Cache    CacheConfig    `koanf:"cache"`
	Database DatabaseConfig `koanf:"database"`
	Logging  logging.Config `koanf:"logging"`
}

// DatasetConfig controls rating ingestion and sampling.
type DatasetConfig struct {
	// Path is the ratings CSV file (user_id, item_id, rating columns).
	Path string `koanf:"path"`

	// SamplePercentage keeps a random fraction of users in (0, 100].
	// 100 keeps everyone.
	SamplePercentage float64 `koanf:"sample_percentage"`

	// DensestUsers and DensestItems, when positive, restrict the corpus
	// to the most active users and most rated items before sampling.
	DensestUsers int `koanf:"densest_users"`
	DensestItems int `koanf:"densest_items"`

	// MinRating and MaxRating bound the rating scale.
	MinRating float64 `koanf:"min_rating"`
	MaxRating float64 `koanf:"max_rating"`
}

// GroupsConfig controls group formation.
type GroupsConfig struct {
	// Seed drives every random draw; runs with equal seeds and
	// configuration produce identical groups.
	Seed int64 `koanf:"seed"`

	// Count is the number of groups to form per size and strategy.
	Count int `koanf:"count"`

	// Sizes lists the group sizes to form.
	Sizes []int `koanf:"sizes"`

	// Strategies lists the formation strategies: similar, dissimilar,
	// random.
	Strategies []string `koanf:"strategies"`

	// MinCoRatedItems is the minimum number of items rated by every
	// member of a candidate group for it to be accepted.
	MinCoRatedItems int `koanf:"min_co_rated_items"`

	// MaxConsecutiveInvalid bounds rejected candidates in a row before a
	// strategy is abandoned for the remaining groups.
	MaxConsecutiveInvalid int `koanf:"max_consecutive_invalid"`
}

// EvaluateConfig controls consensus evaluation.
type EvaluateConfig struct {
	// TopN is the ranking cutoff for success and miss checks.
	TopN int `koanf:"top_n"`

	// Aggregators lists the aggregation rules to evaluate.
	Aggregators []string `koanf:"aggregators"`
}

// CacheConfig controls the on-disk group cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// DatabaseConfig controls DuckDB result persistence.
type DatabaseConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the DuckDB database file; empty means in-memory.
	Path string `koanf:"path"`

	// ExportMatrixPath, when set, writes the dense rating matrix as CSV
	// after ingestion.
	ExportMatrixPath string `koanf:"export_matrix_path"`
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:             "ratings.csv",
			SamplePercentage: 100,
			DensestUsers:     0, // 0 = keep all users
			DensestItems:     0,
			MinRating:        1,
			MaxRating:        10,
		},
		Groups: GroupsConfig{
			Seed:                  1,
			Count:                 100,
			Sizes:                 []int{3, 5, 8},
			Strategies:            []string{"similar", "dissimilar", "random"},
			MinCoRatedItems:       groups.DefaultSelectorConfig().MinCoRatedItems,
			MaxConsecutiveInvalid: groups.DefaultSelectorConfig().MaxConsecutiveInvalid,
		},
		Evaluate: EvaluateConfig{
			TopN: 3,
			Aggregators: []string{
				"least_misery", "mean", "multiplicative",
				"most_pleasure", "borda_count", "purity",
			},
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "/data/groupcache",
		},
		Database: DatabaseConfig{
			Enabled:          false,
			Path:             "/data/groupwise.duckdb",
			ExportMatrixPath: "",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration for internal consistency. It collects
// the first error encountered so callers fail fast with a precise message.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if c.Dataset.SamplePercentage <= 0 || c.Dataset.SamplePercentage > 100 {
		return fmt.Errorf("dataset.sample_percentage must be in (0, 100], got %v", c.Dataset.SamplePercentage)
	}
	if c.Dataset.DensestUsers < 0 {
		return fmt.Errorf("dataset.densest_users must not be negative, got %d", c.Dataset.DensestUsers)
	}
	if c.Dataset.DensestItems < 0 {
		return fmt.Errorf("dataset.densest_items must not be negative, got %d", c.Dataset.DensestItems)
	}
	if c.Dataset.MinRating >= c.Dataset.MaxRating {
		return fmt.Errorf("dataset.min_rating %v must be below dataset.max_rating %v",
			c.Dataset.MinRating, c.Dataset.MaxRating)
	}

	if c.Groups.Count < 1 {
		return fmt.Errorf("groups.count must be at least 1, got %d", c.Groups.Count)
	}
	if len(c.Groups.Sizes) == 0 {
		return fmt.Errorf("groups.sizes must not be empty")
	}
	for _, size := range c.Groups.Sizes {
		if size < 2 {
			return fmt.Errorf("groups.sizes entries must be at least 2, got %d", size)
		}
	}
	if len(c.Groups.Strategies) == 0 {
		return fmt.Errorf("groups.strategies must not be empty")
	}
	for _, s := range c.Groups.Strategies {
		if _, err := groups.ParseType(s); err != nil {
			return fmt.Errorf("groups.strategies: %w", err)
		}
	}
	if c.Groups.MinCoRatedItems < 1 {
		return fmt.Errorf("groups.min_co_rated_items must be at least 1, got %d", c.Groups.MinCoRatedItems)
	}
	if c.Groups.MaxConsecutiveInvalid < 1 {
		return fmt.Errorf("groups.max_consecutive_invalid must be at least 1, got %d", c.Groups.MaxConsecutiveInvalid)
	}

	if c.Evaluate.TopN < 1 {
		return fmt.Errorf("evaluate.top_n must be at least 1, got %d", c.Evaluate.TopN)
	}
	if len(c.Evaluate.Aggregators) == 0 {
		return fmt.Errorf("evaluate.aggregators must not be empty")
	}
	for _, a := range c.Evaluate.Aggregators {
		if _, err := consensus.ParseKind(a); err != nil {
			return fmt.Errorf("evaluate.aggregators: %w", err)
		}
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when cache.enabled is true")
	}

	return nil
}

// CheckDatasetExists verifies the ratings file is readable. Separated from
// Validate so unit tests can validate configs without touching the
// filesystem.
func (c *Config) CheckDatasetExists() error {
	if _, err := os.Stat(c.Dataset.Path); err != nil {
		return fmt.Errorf("dataset.path: %w", err)
	}
	return nil
}
