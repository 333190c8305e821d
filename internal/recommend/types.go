// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package recommend

import (
	"context"
	"time"
)

// Strategy identifies one scoring strategy.
type Strategy int

const (
	// StrategyHybrid fuses embedding and lexical scores.
	StrategyHybrid Strategy = iota
	// StrategyEmbedding ranks by cosine similarity of remote embeddings.
	StrategyEmbedding
	// StrategySemantic ranks by remote pairwise sentence similarity.
	StrategySemantic
	// StrategyGenerative ranks by a remote LLM's free-text ordering.
	StrategyGenerative
	// StrategyLexical ranks by local TF-IDF similarity.
	StrategyLexical
	// StrategyRecency orders by item recency; the cold-start fallback.
	StrategyRecency
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyHybrid:
		return "hybrid"
	case StrategyEmbedding:
		return "embedding"
	case StrategySemantic:
		return "semantic"
	case StrategyGenerative:
		return "generative"
	case StrategyLexical:
		return "lexical"
	case StrategyRecency:
		return "fallback_recent"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a caller-supplied mode string to a Strategy.
// Empty input selects hybrid, matching the original service default.
// The "tfidf" alias is accepted for lexical.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "", "hybrid":
		return StrategyHybrid, true
	case "embedding", "embeddings":
		return StrategyEmbedding, true
	case "semantic":
		return StrategySemantic, true
	case "generative", "llm":
		return StrategyGenerative, true
	case "lexical", "tfidf":
		return StrategyLexical, true
	case "recent", "recency":
		return StrategyRecency, true
	default:
		return StrategyHybrid, false
	}
}

// Item is one content item eligible for ranking. Items are immutable
// for the duration of a ranking invocation.
type Item struct {
	// ID is the opaque, stable item identifier.
	ID string `json:"id"`

	// Caption is the primary display text.
	Caption string `json:"caption"`

	// Text is the scoring text: the caption concatenated with
	// secondary context such as comments. Never empty; items without
	// content carry a placeholder.
	Text string `json:"text"`

	// Author is an optional author tag.
	Author string `json:"author,omitempty"`

	// CreatedAt is the recency timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// ScoredItem is an item annotated with a relevance score.
type ScoredItem struct {
	// Item is the ranked content item.
	Item Item `json:"item"`

	// Score is the relevance score. Scores are comparable only within
	// a single ranking result.
	Score float64 `json:"score"`

	// Scores holds per-strategy sub-scores for hybrid transparency.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Strategy is the tag of the strategy that produced the score.
	Strategy string `json:"strategy"`
}

// Request is a single ranking invocation.
type Request struct {
	// UserID identifies the user to rank for.
	UserID string `json:"user_id"`

	// Strategy is the requested scoring strategy.
	Strategy Strategy `json:"strategy"`

	// Limit is the maximum number of items to return. Zero selects
	// the configured default; the configured hard cap always applies.
	Limit int `json:"limit,omitempty"`

	// DisableCache bypasses the advisory inference response cache for
	// this invocation. Used by tests and comparisons.
	DisableCache bool `json:"disable_cache,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is an ordered ranking result.
type Response struct {
	// Items is the ranked, length-capped list.
	Items []ScoredItem `json:"items"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a ranking result was produced.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the ranking is for.
	UserID string `json:"user_id"`

	// StrategyRequested is the strategy the caller asked for.
	StrategyRequested string `json:"strategy_requested"`

	// StrategyUsed is the strategy that actually produced the result.
	// Differs from StrategyRequested when the fallback chain engaged;
	// "none" when the candidate pool was empty and no scorer ran.
	StrategyUsed string `json:"strategy_used"`

	// TotalCandidates is the candidate pool size after exclusion.
	TotalCandidates int `json:"total_candidates"`

	// ProfileSize is the number of liked items used as signal.
	ProfileSize int `json:"profile_size"`

	// ElapsedMS is the invocation latency in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Provider supplies the read-only data snapshots a ranking invocation
// operates on. Implemented by the storage layer; the engine performs
// no writes through it.
type Provider interface {
	// GetItems returns all rankable items in stable order.
	GetItems(ctx context.Context) ([]Item, error)

	// GetLikedItemIDs returns the IDs of items the user liked.
	GetLikedItemIDs(ctx context.Context, userID string) ([]string, error)

	// GetViewedItemIDs returns the IDs of items the user viewed.
	GetViewedItemIDs(ctx context.Context, userID string) ([]string, error)
}
