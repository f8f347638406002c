// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"groupwise.yaml",
	"groupwise.yml",
	"/etc/groupwise/config.yaml",
	"/etc/groupwise/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "GROUPWISE_CONFIG"

// EnvPrefix is the prefix shared by all Groupwise environment variables.
const EnvPrefix = "GROUPWISE_"

// Load builds the configuration from layered sources:
//  1. Defaults: built-in struct defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: GROUPWISE_* overrides any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// loadFrom runs the layered load against an explicit config file path
// (empty means no file layer). Split out for tests.
func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform environment variable names to koanf paths:
	// GROUPWISE_DATASET_PATH -> dataset.path
	// GROUPWISE_GROUPS_MAX_CONSECUTIVE_INVALID -> groups.max_consecutive_invalid
	envProvider := env.Provider(EnvPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths. Returns
// the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps a GROUPWISE_* environment variable name to its
// koanf config path. Multi-word field names need explicit entries because
// underscores are ambiguous between section separators and field names.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	envMappings := map[string]string{
		"dataset_path":              "dataset.path",
		"dataset_sample_percentage": "dataset.sample_percentage",
		"dataset_densest_users":     "dataset.densest_users",
		"dataset_densest_items":     "dataset.densest_items",
		"dataset_min_rating":        "dataset.min_rating",
		"dataset_max_rating":        "dataset.max_rating",

		"groups_seed":                    "groups.seed",
		"groups_count":                   "groups.count",
		"groups_sizes":                   "groups.sizes",
		"groups_strategies":              "groups.strategies",
		"groups_min_co_rated_items":      "groups.min_co_rated_items",
		"groups_max_consecutive_invalid": "groups.max_consecutive_invalid",

		"evaluate_top_n":       "evaluate.top_n",
		"evaluate_aggregators": "evaluate.aggregators",

		"cache_enabled": "cache.enabled",
		"cache_path":    "cache.path",

		"database_enabled":            "database.enabled",
		"database_path":               "database.path",
		"database_export_matrix_path": "database.export_matrix_path",

		"logging_level":  "logging.level",
		"logging_format": "logging.format",
		"logging_caller": "logging.caller",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}

	// Fall back to first-underscore splitting for single-word fields.
	if section, field, found := strings.Cut(key, "_"); found {
		return section + "." + field
	}
	return key
}

// sliceConfigPaths defines which config paths parse as comma-separated
// slices when set through environment variables.
var sliceConfigPaths = []string{
	"groups.sizes",
	"groups.strategies",
	"evaluate.aggregators",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults): skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		if _, ok := val.([]int); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}
