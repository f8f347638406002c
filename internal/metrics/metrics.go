// Groupwise - Group Recommendation Consensus Evaluation
// Copyright 2026 The Groupwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groupwise/groupwise

// Package metrics provides Prometheus instrumentation for the batch engine:
// group sampling outcomes, distance computations, and evaluation latency.
// Collectors register on the default registry; batch drivers can expose or
// scrape them as they see fit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Group Formation Metrics
	GroupsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupwise_groups_accepted_total",
			Help: "Total number of candidate groups accepted, by strategy",
		},
		[]string{"strategy"},
	)

	GroupsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupwise_groups_rejected_total",
			Help: "Total number of candidate groups rejected by the minimum co-rated items check, by strategy",
		},
		[]string{"strategy"},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupwise_strategy_failures_total",
			Help: "Total number of (size, strategy) requests that hit the consecutive-rejection bound",
		},
		[]string{"strategy"},
	)

	DistanceComputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupwise_distance_computations_total",
			Help: "Total number of pivot-to-pool distance computations",
		},
	)

	// Evaluation Metrics
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groupwise_evaluation_duration_seconds",
			Help:    "Duration of one group evaluation across all aggregators",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	GroupsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupwise_groups_evaluated_total",
			Help: "Total number of groups evaluated, by strategy",
		},
		[]string{"strategy"},
	)

	RatingsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupwise_ratings_loaded",
			Help: "Number of ratings in the active corpus",
		},
	)
)
