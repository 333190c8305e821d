// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
)

func semanticTestConfig() recommend.SemanticConfig {
	return recommend.SemanticConfig{MaxProfileItems: 5, MaxCandidates: 10}
}

func TestSemanticScoreAveragesAcrossProfile(t *testing.T) {
	client := &fakeClient{responses: [][]byte{
		[]byte(`[0.8, 0.2]`),
		[]byte(`[0.4, 0.6]`),
	}}
	sem := NewSemantic(client, semanticTestConfig())

	profile := []recommend.Item{
		testItem("p1", "surfing", 0),
		testItem("p2", "waves", 0),
	}
	candidates := []recommend.Item{
		testItem("c1", "surf video", 0),
		testItem("c2", "cooking", 0),
	}

	scores, err := sem.Score(context.Background(), profile, candidates)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if math.Abs(scores[0]-0.6) > 1e-9 {
		t.Errorf("scores[0] = %f, want 0.6", scores[0])
	}
	if math.Abs(scores[1]-0.4) > 1e-9 {
		t.Errorf("scores[1] = %f, want 0.4", scores[1])
	}
	if len(client.endpoints) != 2 {
		t.Errorf("remote invoked %d times, want one per profile item", len(client.endpoints))
	}
	for _, ep := range client.endpoints {
		if ep != inference.EndpointSimilarity {
			t.Errorf("endpoint = %q, want similarity", ep)
		}
	}
}

func TestSemanticScoreProfileCap(t *testing.T) {
	cfg := semanticTestConfig()
	cfg.MaxProfileItems = 2

	client := &fakeClient{responses: [][]byte{
		[]byte(`[0.5]`),
		[]byte(`[0.5]`),
	}}
	sem := NewSemantic(client, cfg)

	profile := []recommend.Item{
		testItem("p1", "a", 0),
		testItem("p2", "b", 0),
		testItem("p3", "c", 0),
		testItem("p4", "d", 0),
	}
	candidates := []recommend.Item{testItem("c1", "x", 0)}

	if _, err := sem.Score(context.Background(), profile, candidates); err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(client.endpoints) != 2 {
		t.Errorf("remote invoked %d times, want capped at 2", len(client.endpoints))
	}
}

func TestSemanticScoreCandidateCapLeavesZeros(t *testing.T) {
	cfg := semanticTestConfig()
	cfg.MaxCandidates = 2

	client := &fakeClient{responses: [][]byte{
		[]byte(`[0.7, 0.3]`),
	}}
	sem := NewSemantic(client, cfg)

	profile := []recommend.Item{testItem("p", "a", 0)}
	candidates := []recommend.Item{
		testItem("c1", "x", 0),
		testItem("c2", "y", 0),
		testItem("c3", "z", 0),
	}

	scores, err := sem.Score(context.Background(), profile, candidates)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if scores[0] != 0.7 || scores[1] != 0.3 {
		t.Errorf("scored candidates = %v, want [0.7 0.3 0]", scores)
	}
	if scores[2] != 0 {
		t.Errorf("candidate beyond cap scored %f, want 0", scores[2])
	}
}

func TestSemanticScoreFailsOnAnyCallError(t *testing.T) {
	client := &fakeClient{err: inference.ErrRemoteUnavailable}
	sem := NewSemantic(client, semanticTestConfig())

	profile := []recommend.Item{testItem("p", "a", 0)}
	candidates := []recommend.Item{testItem("c", "x", 0)}

	_, err := sem.Score(context.Background(), profile, candidates)
	if !errors.Is(err, inference.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
}

func TestSemanticScoreCountMismatch(t *testing.T) {
	client := &fakeClient{responses: [][]byte{
		[]byte(`[0.7]`),
	}}
	sem := NewSemantic(client, semanticTestConfig())

	profile := []recommend.Item{testItem("p", "a", 0)}
	candidates := []recommend.Item{
		testItem("c1", "x", 0),
		testItem("c2", "y", 0),
	}

	_, err := sem.Score(context.Background(), profile, candidates)
	if !errors.Is(err, inference.ErrRemoteMalformed) {
		t.Errorf("error = %v, want ErrRemoteMalformed", err)
	}
}

func TestSemanticScoreRequiresProfile(t *testing.T) {
	sem := NewSemantic(&fakeClient{}, semanticTestConfig())

	_, err := sem.Score(context.Background(), nil, []recommend.Item{testItem("c", "x", 0)})
	if err == nil {
		t.Error("Score with empty profile succeeded, want error")
	}
}
