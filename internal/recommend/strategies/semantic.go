// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
)

// Semantic scores candidates with a remote sentence-similarity model.
// One remote call per profile item compares that item's text against
// every candidate; per-candidate scores are averaged across the
// profile. The fan-out is bounded by the configured caps and paced by
// a local rate limiter so a large profile cannot hammer the endpoint.
type Semantic struct {
	client  InferenceClient
	cfg     recommend.SemanticConfig
	limiter *rate.Limiter
}

// NewSemantic builds the pairwise semantic strategy.
func NewSemantic(client InferenceClient, cfg recommend.SemanticConfig) *Semantic {
	return &Semantic{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// Name returns the strategy's wire tag.
func (s *Semantic) Name() string {
	return recommend.StrategySemantic.String()
}

// similarityRequest is the sentence-similarity payload.
type similarityRequest struct {
	Inputs similarityInputs `json:"inputs"`
}

type similarityInputs struct {
	SourceSentence string   `json:"source_sentence"`
	Sentences      []string `json:"sentences"`
}

// Score averages remote pairwise similarity of each candidate against
// up to MaxProfileItems liked items. Only the first MaxCandidates
// candidates are scored remotely; the rest keep a zero score, which
// the engine's stable sort leaves below every scored candidate. Any
// failed remote call fails the whole strategy.
func (s *Semantic) Score(ctx context.Context, profile, candidates []recommend.Item) ([]float64, error) {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("semantic strategy requires a profile")
	}

	if len(profile) > s.cfg.MaxProfileItems {
		profile = profile[:s.cfg.MaxProfileItems]
	}
	scored := candidates
	if len(scored) > s.cfg.MaxCandidates {
		scored = scored[:s.cfg.MaxCandidates]
	}
	candidateTexts := scoringTexts(scored)

	for i, liked := range profile {
		if i > 0 {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		body, err := s.client.Invoke(ctx, inference.EndpointSimilarity, similarityRequest{
			Inputs: similarityInputs{
				SourceSentence: liked.Text,
				Sentences:      candidateTexts,
			},
		})
		if err != nil {
			return nil, err
		}
		pairwise, err := inference.ParsePairwiseScores(body, len(candidateTexts))
		if err != nil {
			return nil, err
		}
		for j, score := range pairwise {
			scores[j] += score
		}
	}

	for j := range scored {
		scores[j] /= float64(len(profile))
	}
	return scores, nil
}
