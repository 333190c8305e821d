// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package recommend

import "fmt"

// Config contains all configuration for the ranking engine. The hybrid
// weights and score decay constants are deliberate product choices
// inherited from the original service; they are configuration, not
// derivable invariants.
type Config struct {
	// DefaultLimit is the result size used when a request omits one.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit is the hard cap on result size regardless of request.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// Hybrid contains the fusion weights for hybrid mode.
	Hybrid HybridConfig `json:"hybrid" koanf:"hybrid"`

	// Lexical contains TF-IDF parameters.
	Lexical LexicalConfig `json:"lexical" koanf:"lexical"`

	// Semantic contains pairwise-similarity cost bounds.
	Semantic SemanticConfig `json:"semantic" koanf:"semantic"`

	// Generative contains prompt and scoring bounds for LLM ranking.
	Generative GenerativeConfig `json:"generative" koanf:"generative"`

	// RecencyFloor is the lowest score the recency fallback assigns.
	// Kept above zero so fallback results remain a usable score column.
	RecencyFloor float64 `json:"recency_floor" koanf:"recency_floor"`

	// DedupeTexts collapses candidates with identical scoring text to a
	// single representative before content scoring. Off by default;
	// the original scored duplicates independently.
	DedupeTexts bool `json:"dedupe_texts" koanf:"dedupe_texts"`
}

// HybridConfig holds the fusion weights for hybrid mode.
type HybridConfig struct {
	// EmbeddingWeight is the weight of the embedding sub-score.
	EmbeddingWeight float64 `json:"embedding_weight" koanf:"embedding_weight"`

	// LexicalWeight is the weight of the lexical sub-score.
	LexicalWeight float64 `json:"lexical_weight" koanf:"lexical_weight"`
}

// LexicalConfig holds TF-IDF vectorizer parameters.
type LexicalConfig struct {
	// MaxFeatures caps the vocabulary size.
	MaxFeatures int `json:"max_features" koanf:"max_features"`

	// MaxDocFreq excludes terms appearing in more than this fraction
	// of documents.
	MaxDocFreq float64 `json:"max_doc_freq" koanf:"max_doc_freq"`
}

// SemanticConfig bounds the per-profile-item remote call fan-out.
type SemanticConfig struct {
	// MaxProfileItems caps the number of remote calls (one per liked item).
	MaxProfileItems int `json:"max_profile_items" koanf:"max_profile_items"`

	// MaxCandidates pre-truncates the candidate pool before invocation.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`
}

// GenerativeConfig bounds the ranking prompt and scores.
type GenerativeConfig struct {
	// MaxCandidates caps the enumerated candidate list in the prompt.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// MaxProfileChars truncates the profile digest in the prompt.
	MaxProfileChars int `json:"max_profile_chars" koanf:"max_profile_chars"`

	// UnrankedScore is the fixed low score for candidates the model
	// never mentioned. Strictly below the lowest possible ranked score.
	UnrankedScore float64 `json:"unranked_score" koanf:"unranked_score"`
}

// DefaultConfig returns the engine defaults, matching the constants of
// the original service where it had them.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 5,
		MaxLimit:     20,
		Hybrid: HybridConfig{
			EmbeddingWeight: 0.8,
			LexicalWeight:   0.2,
		},
		Lexical: LexicalConfig{
			MaxFeatures: 1000,
			MaxDocFreq:  0.9,
		},
		Semantic: SemanticConfig{
			MaxProfileItems: 5,
			MaxCandidates:   10,
		},
		Generative: GenerativeConfig{
			MaxCandidates:   10,
			MaxProfileChars: 450,
			UnrankedScore:   0.05,
		},
		RecencyFloor: 0.1,
	}
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be >= 1, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < 1 {
		return fmt.Errorf("max_limit must be >= 1, got %d", c.MaxLimit)
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	if c.Hybrid.EmbeddingWeight < 0 || c.Hybrid.LexicalWeight < 0 {
		return fmt.Errorf("hybrid weights must be non-negative")
	}
	if c.Hybrid.EmbeddingWeight+c.Hybrid.LexicalWeight == 0 {
		return fmt.Errorf("hybrid weights must not both be zero")
	}
	if c.Lexical.MaxFeatures < 1 {
		return fmt.Errorf("lexical max_features must be >= 1, got %d", c.Lexical.MaxFeatures)
	}
	if c.Lexical.MaxDocFreq <= 0 || c.Lexical.MaxDocFreq > 1 {
		return fmt.Errorf("lexical max_doc_freq must be in (0, 1], got %f", c.Lexical.MaxDocFreq)
	}
	if c.Semantic.MaxProfileItems < 1 {
		return fmt.Errorf("semantic max_profile_items must be >= 1, got %d", c.Semantic.MaxProfileItems)
	}
	if c.Semantic.MaxCandidates < 1 {
		return fmt.Errorf("semantic max_candidates must be >= 1, got %d", c.Semantic.MaxCandidates)
	}
	if c.Generative.MaxCandidates < 1 {
		return fmt.Errorf("generative max_candidates must be >= 1, got %d", c.Generative.MaxCandidates)
	}
	if c.Generative.MaxProfileChars < 1 {
		return fmt.Errorf("generative max_profile_chars must be >= 1, got %d", c.Generative.MaxProfileChars)
	}
	if c.Generative.UnrankedScore < 0 || c.Generative.UnrankedScore >= 1 {
		return fmt.Errorf("generative unranked_score must be in [0, 1), got %f", c.Generative.UnrankedScore)
	}
	if c.RecencyFloor <= 0 || c.RecencyFloor >= 1 {
		return fmt.Errorf("recency_floor must be in (0, 1), got %f", c.RecencyFloor)
	}
	return nil
}
