// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package runner orchestrates a full experiment: form groups for every
// configured size and strategy, evaluate every aggregation rule against
// them, and optionally persist the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/groupwise/groupwise/internal/config"
	"github.com/groupwise/groupwise/internal/consensus"
	"github.com/groupwise/groupwise/internal/evaluate"
	"github.com/groupwise/groupwise/internal/groupcache"
	"github.com/groupwise/groupwise/internal/groups"
	"github.com/groupwise/groupwise/internal/logging"
	"github.com/groupwise/groupwise/internal/metrics"
	"github.com/groupwise/groupwise/internal/ratings"
)

// ResultSink persists evaluation results. Satisfied by store.Store.
type ResultSink interface {
	SaveResults(ctx context.Context, runID string, results []evaluate.Result) error
}

// Runner drives the form-then-evaluate batch.
type Runner struct {
	cfg   *config.Config
	cache *groupcache.Store
	sink  ResultSink
	log   zerolog.Logger
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithCache attaches a group cache; formed groups are reused across runs
// with the same seed and formation settings.
func WithCache(c *groupcache.Store) Option {
	return func(r *Runner) { r.cache = c }
}

// WithSink attaches a result sink for persistence.
func WithSink(s ResultSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithLogger overrides the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New creates a runner for the configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		log: logging.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is the outcome of one run.
type Report struct {
	// RunID uniquely identifies the run in the results store.
	RunID string `json:"run_id"`

	// Results holds one entry per (group, aggregator) pair, in batch
	// order.
	Results []evaluate.Result `json:"results"`

	// GroupsFormed counts accepted groups per strategy across all sizes.
	GroupsFormed map[groups.Type]int `json:"groups_formed"`

	// StrategyFailures counts (size, strategy) requests abandoned after
	// too many consecutive rejections.
	StrategyFailures int `json:"strategy_failures"`
}

// Run executes the experiment over the corpus.
//
// Every (size, strategy) pair gets a fresh deterministic random source
// seeded from the configuration, so results do not depend on batch order
// and identical runs reproduce bit for bit. A strategy that exhausts its
// rejection budget is logged and skipped; the run continues with whatever
// groups were accepted before the failure.
func (r *Runner) Run(ctx context.Context, corpus []ratings.Rating) (*Report, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("runner: empty corpus")
	}

	strategies := make([]groups.Type, 0, len(r.cfg.Groups.Strategies))
	for _, s := range r.cfg.Groups.Strategies {
		typ, err := groups.ParseType(s)
		if err != nil {
			return nil, fmt.Errorf("runner: %w", err)
		}
		strategies = append(strategies, typ)
	}

	aggs, err := r.aggregators()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:        uuid.NewString(),
		GroupsFormed: make(map[groups.Type]int),
	}
	engine := evaluate.New(r.cfg.Evaluate.TopN)

	r.log.Info().
		Str("run_id", report.RunID).
		Int64("seed", r.cfg.Groups.Seed).
		Ints("sizes", r.cfg.Groups.Sizes).
		Int("ratings", len(corpus)).
		Msg("run started")

	for _, size := range r.cfg.Groups.Sizes {
		for _, typ := range strategies {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("runner: %w", err)
			}

			batch, err := r.formGroups(corpus, size, typ)
			if err != nil {
				if !errors.Is(err, groups.ErrMaxInvalidIterations) {
					return nil, fmt.Errorf("runner: form groups size=%d strategy=%s: %w", size, typ, err)
				}
				metrics.StrategyFailures.WithLabelValues(string(typ)).Inc()
				report.StrategyFailures++
				r.log.Warn().
					Int("size", size).
					Str("strategy", string(typ)).
					Int("formed", len(batch)).
					Msg("strategy abandoned after consecutive rejections")
			}
			report.GroupsFormed[typ] += len(batch)

			for _, g := range batch {
				start := time.Now()
				results, err := engine.Evaluate(corpus, g, aggs)
				metrics.EvaluationDuration.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())
				if err != nil {
					r.log.Warn().Err(err).Ints("members", g.Members).Msg("group evaluation skipped")
					continue
				}
				metrics.GroupsEvaluated.WithLabelValues(string(typ)).Inc()
				report.Results = append(report.Results, results...)
			}
		}
	}

	if r.sink != nil && len(report.Results) > 0 {
		if err := r.sink.SaveResults(ctx, report.RunID, report.Results); err != nil {
			return nil, fmt.Errorf("runner: persist results: %w", err)
		}
	}

	r.log.Info().
		Str("run_id", report.RunID).
		Int("results", len(report.Results)).
		Int("strategy_failures", report.StrategyFailures).
		Msg("run finished")
	return report, nil
}

// formGroups produces groups for one (size, strategy) pair, consulting the
// cache when one is attached. Partial batches from an abandoned strategy
// are returned alongside ErrMaxInvalidIterations and are never cached.
func (r *Runner) formGroups(corpus []ratings.Rating, size int, typ groups.Type) ([]groups.Group, error) {
	key := groupcache.Key{
		Seed:      r.cfg.Groups.Seed,
		NumGroups: r.cfg.Groups.Count,
		Size:      size,
		Strategy:  typ,
	}

	if r.cache != nil {
		batch, err := r.cache.Get(key)
		if err == nil {
			r.log.Debug().Int("size", size).Str("strategy", string(typ)).Msg("groups served from cache")
			return batch, nil
		}
		if !errors.Is(err, groupcache.ErrNotFound) {
			return nil, err
		}
	}

	// A fresh source per pair keeps draws independent of batch order.
	rng := rand.New(rand.NewSource(r.cfg.Groups.Seed))
	sel := groups.NewSelector(corpus, rng, groups.SelectorConfig{
		MinCoRatedItems:       r.cfg.Groups.MinCoRatedItems,
		MaxConsecutiveInvalid: r.cfg.Groups.MaxConsecutiveInvalid,
	}, r.log)

	batch, err := sel.Select(r.cfg.Groups.Count, size, typ)
	if err != nil {
		return batch, err
	}

	if r.cache != nil {
		if err := r.cache.Put(key, batch); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// aggregators instantiates the configured aggregation rules. Purity is
// bound to the dataset's rating scale.
func (r *Runner) aggregators() ([]consensus.Aggregator, error) {
	out := make([]consensus.Aggregator, 0, len(r.cfg.Evaluate.Aggregators))
	for _, name := range r.cfg.Evaluate.Aggregators {
		kind, err := consensus.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("runner: %w", err)
		}
		if kind == consensus.Purity {
			out = append(out, consensus.NewPurity(r.cfg.Dataset.MinRating, r.cfg.Dataset.MaxRating))
			continue
		}
		agg, err := consensus.New(kind)
		if err != nil {
			return nil, fmt.Errorf("runner: %w", err)
		}
		out = append(out, agg)
	}
	return out, nil
}

// PrepareCorpus applies the configured densest-subset restriction and
// random sampling to the raw corpus, in that order.
func PrepareCorpus(cfg *config.Config, corpus []ratings.Rating, rng *rand.Rand) []ratings.Rating {
	if cfg.Dataset.DensestUsers > 0 || cfg.Dataset.DensestItems > 0 {
		topUsers := cfg.Dataset.DensestUsers
		if topUsers == 0 {
			topUsers = len(ratings.Users(corpus))
		}
		topItems := cfg.Dataset.DensestItems
		if topItems == 0 {
			topItems = len(ratings.Items(corpus))
		}
		corpus = ratings.Densest(corpus, topUsers, topItems)
	}
	if cfg.Dataset.SamplePercentage < 100 {
		corpus = ratings.Sample(corpus, cfg.Dataset.SamplePercentage/100, rng)
	}
	return corpus
}
