// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package strategies implements the individual scoring strategies the
// ranking engine composes: remote embedding similarity, remote
// pairwise semantic scoring, remote generative ranking, local TF-IDF
// lexical similarity, and the recency fallback.
//
// Every strategy scores the full candidate slice in one call and
// returns one score per candidate, aligned by index. Strategies never
// reorder; ordering and truncation belong to the engine.
package strategies

import (
	"context"
	"math"

	"github.com/cliprank/cliprank/internal/recommend"
)

// Scorer is one scoring strategy. Implementations must be safe for
// concurrent use.
type Scorer interface {
	// Name returns the strategy's wire tag.
	Name() string

	// Score returns one relevance score per candidate, aligned by
	// index with the candidates slice. The profile carries the user's
	// liked items; strategies that ignore it still receive it.
	Score(ctx context.Context, profile, candidates []recommend.Item) ([]float64, error)
}

// InferenceClient is the remote model surface the strategies need.
// Satisfied by *inference.Client.
type InferenceClient interface {
	Invoke(ctx context.Context, endpointID string, payload any) ([]byte, error)
	Configured(endpointID string) bool
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Zero when either vector has zero magnitude or lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// meanVector returns the element-wise mean of vectors. All vectors
// must share the length of the first; shorter slices are skipped.
func meanVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	out := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, f := range v {
			out[i] += f
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range out {
		out[i] /= float64(count)
	}
	return out
}

// scoringTexts extracts the scoring text of each item.
func scoringTexts(items []recommend.Item) []string {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	return texts
}
