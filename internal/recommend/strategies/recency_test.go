// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cliprank/cliprank/internal/recommend"
)

func TestRecencyScoreOrdering(t *testing.T) {
	rec := NewRecency(0.1)

	// Input order deliberately differs from recency order:
	// candidates[1] is newest, then [0], then [2].
	candidates := []recommend.Item{
		testItem("mid", "x", 2*time.Hour),
		testItem("new", "y", 1*time.Hour),
		testItem("old", "z", 3*time.Hour),
	}
	scores, err := rec.Score(context.Background(), nil, candidates)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	if !(scores[1] > scores[0] && scores[0] > scores[2]) {
		t.Errorf("scores %v do not follow recency order", scores)
	}
	if scores[1] != 1 {
		t.Errorf("newest score = %f, want 1", scores[1])
	}
	if math.Abs(scores[2]-0.1) > 1e-9 {
		t.Errorf("oldest score = %f, want floor 0.1", scores[2])
	}
	if math.Abs(scores[0]-0.55) > 1e-9 {
		t.Errorf("middle score = %f, want 0.55", scores[0])
	}
}

func TestRecencyScoreSingleCandidate(t *testing.T) {
	rec := NewRecency(0.1)

	scores, err := rec.Score(context.Background(), nil, []recommend.Item{testItem("only", "x", 0)})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if scores[0] != 1 {
		t.Errorf("score = %f, want 1", scores[0])
	}
}

func TestRecencyScoreTiesKeepInputOrder(t *testing.T) {
	rec := NewRecency(0.1)

	candidates := []recommend.Item{
		testItem("first", "x", time.Hour),
		testItem("second", "y", time.Hour),
	}
	scores, err := rec.Score(context.Background(), nil, candidates)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if scores[0] <= scores[1] {
		t.Errorf("earlier input should win the tie: %v", scores)
	}
}

func TestRecencyScoreEmpty(t *testing.T) {
	rec := NewRecency(0.1)

	scores, err := rec.Score(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
}
