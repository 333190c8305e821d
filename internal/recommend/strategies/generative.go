// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
)

// Generative ranks candidates with a remote text-generation model: it
// builds a prompt enumerating the candidates against a digest of the
// user's liked captions, then recovers an ordering from whatever free
// text the model returns. Positions become scores so the result fits
// the common per-candidate score shape.
type Generative struct {
	client InferenceClient
	cfg    recommend.GenerativeConfig
}

// NewGenerative builds the generative ranking strategy.
func NewGenerative(client InferenceClient, cfg recommend.GenerativeConfig) *Generative {
	return &Generative{client: client, cfg: cfg}
}

// Name returns the strategy's wire tag.
func (g *Generative) Name() string {
	return recommend.StrategyGenerative.String()
}

// generationRequest is the text-generation payload.
type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
	Options    embeddingOptions     `json:"options"`
}

type generationParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

// Score prompts the model to order the first MaxCandidates candidates.
// A candidate ranked at position p (zero-based) among n enumerated
// candidates scores 1 - p/n; enumerated candidates the model never
// mentioned get the fixed unranked score, and candidates beyond the
// cap get zero. A response naming no valid index is malformed.
func (g *Generative) Score(ctx context.Context, profile, candidates []recommend.Item) ([]float64, error) {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("generative strategy requires a profile")
	}

	ranked := candidates
	if len(ranked) > g.cfg.MaxCandidates {
		ranked = ranked[:g.cfg.MaxCandidates]
	}

	prompt := g.buildPrompt(profile, ranked)
	body, err := g.client.Invoke(ctx, inference.EndpointGeneration, generationRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxNewTokens:   50,
			ReturnFullText: false,
		},
		Options: embeddingOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	text, err := inference.ParseGeneratedText(body)
	if err != nil {
		return nil, err
	}

	order := inference.ParseRankedIndices(text, len(ranked))
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: generated text names no candidate", inference.ErrRemoteMalformed)
	}

	n := float64(len(ranked))
	for i := range ranked {
		scores[i] = g.cfg.UnrankedScore
	}
	for pos, idx := range order {
		scores[idx] = 1 - float64(pos)/n
	}
	return scores, nil
}

// buildPrompt digests the liked captions and enumerates the candidates
// for the model to order.
func (g *Generative) buildPrompt(profile, candidates []recommend.Item) string {
	captions := make([]string, len(profile))
	for i, it := range profile {
		captions[i] = it.Caption
	}
	digest := strings.Join(captions, "; ")
	if len(digest) > g.cfg.MaxProfileChars {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := g.cfg.MaxProfileChars
		for cut > 0 && !utf8.RuneStart(digest[cut]) {
			cut--
		}
		digest = digest[:cut]
	}

	var b strings.Builder
	b.WriteString("A user liked videos with these captions: ")
	b.WriteString(digest)
	b.WriteString("\n\nRank the following videos from most to least relevant to this user. ")
	b.WriteString("Reply with the video numbers in order, separated by commas.\n\n")
	for i, it := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Caption)
	}
	b.WriteString("\nRanking:")
	return b.String()
}
