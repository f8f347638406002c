// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config Validate() error = %v", err)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groupwise.yaml")
	yaml := `
dataset:
  path: /data/ml-ratings.csv
  sample_percentage: 25
groups:
  seed: 42
  count: 10
  sizes: [3, 5]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Env beats file, file beats defaults.
	t.Setenv("GROUPWISE_GROUPS_COUNT", "7")
	t.Setenv("GROUPWISE_GROUPS_STRATEGIES", "random, similar")
	t.Setenv("GROUPWISE_EVALUATE_TOP_N", "5")

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}

	if cfg.Dataset.Path != "/data/ml-ratings.csv" {
		t.Errorf("Dataset.Path = %q, want file value", cfg.Dataset.Path)
	}
	if cfg.Dataset.SamplePercentage != 25 {
		t.Errorf("Dataset.SamplePercentage = %v, want 25", cfg.Dataset.SamplePercentage)
	}
	if cfg.Groups.Seed != 42 {
		t.Errorf("Groups.Seed = %d, want 42", cfg.Groups.Seed)
	}
	if cfg.Groups.Count != 7 {
		t.Errorf("Groups.Count = %d, want env override 7", cfg.Groups.Count)
	}
	if want := []int{3, 5}; !reflect.DeepEqual(cfg.Groups.Sizes, want) {
		t.Errorf("Groups.Sizes = %v, want %v", cfg.Groups.Sizes, want)
	}
	if want := []string{"random", "similar"}; !reflect.DeepEqual(cfg.Groups.Strategies, want) {
		t.Errorf("Groups.Strategies = %v, want %v", cfg.Groups.Strategies, want)
	}
	if cfg.Evaluate.TopN != 5 {
		t.Errorf("Evaluate.TopN = %d, want 5", cfg.Evaluate.TopN)
	}
	// Untouched sections keep their defaults.
	if cfg.Dataset.MaxRating != 10 {
		t.Errorf("Dataset.MaxRating = %v, want default 10", cfg.Dataset.MaxRating)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dataset path", func(c *Config) { c.Dataset.Path = "" }},
		{"zero sample percentage", func(c *Config) { c.Dataset.SamplePercentage = 0 }},
		{"sample percentage above 100", func(c *Config) { c.Dataset.SamplePercentage = 101 }},
		{"inverted rating bounds", func(c *Config) { c.Dataset.MinRating = 10; c.Dataset.MaxRating = 1 }},
		{"zero group count", func(c *Config) { c.Groups.Count = 0 }},
		{"no sizes", func(c *Config) { c.Groups.Sizes = nil }},
		{"size below two", func(c *Config) { c.Groups.Sizes = []int{1} }},
		{"unknown strategy", func(c *Config) { c.Groups.Strategies = []string{"clustered"} }},
		{"zero min co-rated", func(c *Config) { c.Groups.MinCoRatedItems = 0 }},
		{"zero invalid bound", func(c *Config) { c.Groups.MaxConsecutiveInvalid = 0 }},
		{"zero top n", func(c *Config) { c.Evaluate.TopN = 0 }},
		{"no aggregators", func(c *Config) { c.Evaluate.Aggregators = nil }},
		{"unknown aggregator", func(c *Config) { c.Evaluate.Aggregators = []string{"median"} }},
		{"cache enabled without path", func(c *Config) { c.Cache.Enabled = true; c.Cache.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"GROUPWISE_DATASET_PATH", "dataset.path"},
		{"GROUPWISE_GROUPS_MAX_CONSECUTIVE_INVALID", "groups.max_consecutive_invalid"},
		{"GROUPWISE_EVALUATE_TOP_N", "evaluate.top_n"},
		{"GROUPWISE_CACHE_ENABLED", "cache.enabled"},
		{"GROUPWISE_LOGGING_LEVEL", "logging.level"},
		{"GROUPWISE_GROUPS_SEED", "groups.seed"},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
