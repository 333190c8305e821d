// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"sort"

	"github.com/cliprank/cliprank/internal/recommend"
)

// Recency scores candidates purely by how new they are. It ignores the
// profile entirely, which makes it the terminal fallback: it works for
// brand-new users and needs no remote calls.
type Recency struct {
	floor float64
}

// NewRecency builds the recency strategy. floor is the score of the
// oldest candidate; the newest always scores 1.
func NewRecency(floor float64) *Recency {
	return &Recency{floor: floor}
}

// Name returns the strategy's wire tag.
func (r *Recency) Name() string {
	return recommend.StrategyRecency.String()
}

// Score assigns linearly decaying scores by recency rank: the newest
// candidate scores 1, the oldest scores the floor, intermediate ranks
// interpolate. Equal timestamps rank by input order. Never fails.
func (r *Recency) Score(_ context.Context, _, candidates []recommend.Item) ([]float64, error) {
	n := len(candidates)
	scores := make([]float64, n)
	if n == 0 {
		return scores, nil
	}
	if n == 1 {
		scores[0] = 1
		return scores, nil
	}

	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i
	}
	sort.SliceStable(ranks, func(a, b int) bool {
		return candidates[ranks[a]].CreatedAt.After(candidates[ranks[b]].CreatedAt)
	})

	step := (1 - r.floor) / float64(n-1)
	for pos, idx := range ranks {
		scores[idx] = 1 - step*float64(pos)
	}
	return scores, nil
}
