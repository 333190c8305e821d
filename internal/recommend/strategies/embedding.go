// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"fmt"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
)

// Embedding scores candidates by cosine similarity between each
// candidate's embedding and the centroid of the profile embeddings.
// All texts go to the remote model in a single call so profile and
// candidates share one embedding space.
type Embedding struct {
	client InferenceClient
}

// NewEmbedding builds the embedding strategy on top of a remote
// inference client.
func NewEmbedding(client InferenceClient) *Embedding {
	return &Embedding{client: client}
}

// Name returns the strategy's wire tag.
func (e *Embedding) Name() string {
	return recommend.StrategyEmbedding.String()
}

// embeddingRequest is the feature-extraction payload.
type embeddingRequest struct {
	Inputs  []string         `json:"inputs"`
	Options embeddingOptions `json:"options"`
}

type embeddingOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Score embeds profile and candidate texts in one remote call and
// returns each candidate's cosine similarity to the mean profile
// vector. A vector count that disagrees with the input count is a
// malformed response.
func (e *Embedding) Score(ctx context.Context, profile, candidates []recommend.Item) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("embedding strategy requires a profile")
	}

	texts := append(scoringTexts(profile), scoringTexts(candidates)...)
	body, err := e.client.Invoke(ctx, inference.EndpointEmbedding, embeddingRequest{
		Inputs:  texts,
		Options: embeddingOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	vectors, err := inference.ParseVectors(body)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			inference.ErrRemoteMalformed, len(vectors), len(texts))
	}

	profileVec := meanVector(vectors[:len(profile)])
	if profileVec == nil {
		return nil, fmt.Errorf("%w: inconsistent profile vector dimensions", inference.ErrRemoteMalformed)
	}

	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = cosineSimilarity(profileVec, vectors[len(profile)+i])
	}
	return scores, nil
}
