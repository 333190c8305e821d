// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package metrics provides Prometheus instrumentation for the ranking
// engine and the remote inference client. Collectors are registered on
// the default registry and exposed at /metrics by the API layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking Metrics

	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_ranking_requests_total",
			Help: "Total ranking requests by requested and actually used strategy",
		},
		[]string{"requested", "used"},
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cliprank_ranking_duration_seconds",
			Help:    "End-to-end ranking invocation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"used"},
	)

	RankingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_ranking_fallbacks_total",
			Help: "Strategy fallback transitions during ranking",
		},
		[]string{"from", "to"},
	)

	RankingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_ranking_errors_total",
			Help: "Ranking invocations that failed before producing a result",
		},
		[]string{"reason"},
	)

	// Inference Client Metrics

	InferenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_inference_requests_total",
			Help: "Remote inference calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // "success", "failure", "rejected"
	)

	InferenceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_inference_retries_total",
			Help: "Remote inference retry attempts by endpoint and cause",
		},
		[]string{"endpoint", "cause"}, // "warmup", "rate_limited", "transport"
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cliprank_inference_duration_seconds",
			Help:    "Remote inference call latency in seconds, including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	InferenceCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_inference_cache_hits_total",
			Help: "Advisory response cache hits by endpoint",
		},
		[]string{"endpoint"},
	)

	InferenceCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_inference_cache_misses_total",
			Help: "Advisory response cache misses by endpoint",
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cliprank_inference_circuit_breaker_state",
			Help: "Circuit breaker state per endpoint (0=closed, 1=half-open, 2=open)",
		},
		[]string{"endpoint"},
	)

	// HTTP Metrics

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliprank_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
)
