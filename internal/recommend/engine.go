// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package recommend implements the ranking engine: it assembles a
// per-user view of the candidate pool, runs the requested scoring
// strategy, and degrades deterministically through cheaper strategies
// when remote scoring fails. Callers always get an ordered result or a
// definite error, never a partial one.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/metrics"
)

// Scorer is one scoring strategy as the engine consumes it. The
// strategies package provides the implementations.
type Scorer interface {
	Name() string
	Score(ctx context.Context, profile, candidates []Item) ([]float64, error)
}

// Scorers bundles the strategy implementations the engine composes.
// All fields are required.
type Scorers struct {
	Embedding  Scorer
	Semantic   Scorer
	Generative Scorer
	Lexical    Scorer
	Recency    Scorer
}

// fallbackOrder is the degradation sequence: most expressive first,
// always ending in recency, which cannot fail. A request tries its
// requested strategy first, then walks the whole sequence from the
// top, skipping strategies already attempted.
var fallbackOrder = []Strategy{
	StrategyGenerative,
	StrategyEmbedding,
	StrategySemantic,
	StrategyLexical,
	StrategyRecency,
}

// Engine is the ranking engine. Safe for concurrent use; all state is
// read-only after construction.
type Engine struct {
	cfg      Config
	provider Provider
	scorers  Scorers
}

// NewEngine builds an engine over the given data provider and strategy
// set.
func NewEngine(cfg Config, provider Provider, scorers Scorers) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if provider == nil {
		return nil, errors.New("engine requires a provider")
	}
	if scorers.Embedding == nil || scorers.Semantic == nil || scorers.Generative == nil ||
		scorers.Lexical == nil || scorers.Recency == nil {
		return nil, errors.New("engine requires all five scorers")
	}
	return &Engine{cfg: cfg, provider: provider, scorers: scorers}, nil
}

// Recommend produces an ordered, scored, length-capped recommendation
// list for the request's user. Remote strategy failures degrade
// through the fallback sequence; the metadata reports which strategy
// actually produced the result.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = logging.GenerateRequestID()
	}
	ctx = logging.ContextWithRequestID(ctx, req.RequestID)
	if req.DisableCache {
		ctx = inference.WithCacheDisabled(ctx)
	}
	log := logging.Ctx(ctx).With().
		Str("user_id", req.UserID).
		Str("strategy", req.Strategy.String()).
		Logger()

	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	profile, candidates, err := e.assemble(ctx, req.UserID)
	if err != nil {
		metrics.RankingErrors.WithLabelValues("provider").Inc()
		return nil, err
	}
	if e.cfg.DedupeTexts {
		candidates = dedupeByText(candidates)
	}

	log.Debug().
		Int("profile_size", len(profile)).
		Int("candidates", len(candidates)).
		Msg("Ranking pool assembled")

	used, result := e.score(ctx, req.Strategy, profile, candidates, log)
	usedName := used.String()
	if len(candidates) == 0 {
		// No scorer ran; don't report a phantom strategy execution.
		usedName = "none"
	}
	items := e.finalize(result, candidates, usedName, limit)
	elapsed := time.Since(start)

	metrics.RankingRequests.WithLabelValues(req.Strategy.String(), usedName).Inc()
	metrics.RankingDuration.WithLabelValues(usedName).Observe(elapsed.Seconds())

	log.Info().
		Str("strategy_used", usedName).
		Int("returned", len(items)).
		Dur("elapsed", elapsed).
		Msg("Ranking complete")

	return &Response{
		Items: items,
		Metadata: ResponseMetadata{
			RequestID:         req.RequestID,
			UserID:            req.UserID,
			StrategyRequested: req.Strategy.String(),
			StrategyUsed:      usedName,
			TotalCandidates:   len(candidates),
			ProfileSize:       len(profile),
			ElapsedMS:         elapsed.Milliseconds(),
			Timestamp:         time.Now().UTC(),
		},
	}, nil
}

// Comparison is the result of running several strategies side by side
// for one user.
type Comparison struct {
	UserID  string               `json:"user_id"`
	Results map[string]*Response `json:"results"`
}

// Compare runs each strategy independently for the user and returns
// the results keyed by requested strategy name. Individual strategies
// still degrade through their own fallbacks, so the per-result
// metadata shows what actually ran.
func (e *Engine) Compare(ctx context.Context, userID string, strats []Strategy, limit int) (*Comparison, error) {
	if len(strats) == 0 {
		strats = []Strategy{StrategyEmbedding, StrategyLexical, StrategyHybrid}
	}
	cmp := &Comparison{
		UserID:  userID,
		Results: make(map[string]*Response, len(strats)),
	}
	for _, st := range strats {
		resp, err := e.Recommend(ctx, Request{
			UserID:   userID,
			Strategy: st,
			Limit:    limit,
		})
		if err != nil {
			return nil, fmt.Errorf("comparing %s: %w", st, err)
		}
		cmp.Results[st.String()] = resp
	}
	return cmp, nil
}

// assemble builds the user's profile (liked items, in like order) and
// the candidate pool (every item the user neither liked nor viewed, in
// provider order).
func (e *Engine) assemble(ctx context.Context, userID string) (profile, candidates []Item, err error) {
	items, err := e.provider.GetItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading items: %w", err)
	}
	likedIDs, err := e.provider.GetLikedItemIDs(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading likes for %s: %w", userID, err)
	}
	viewedIDs, err := e.provider.GetViewedItemIDs(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading views for %s: %w", userID, err)
	}

	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	excluded := make(map[string]bool, len(likedIDs)+len(viewedIDs))
	for _, id := range likedIDs {
		if it, ok := byID[id]; ok {
			profile = append(profile, it)
		}
		excluded[id] = true
	}
	for _, id := range viewedIDs {
		excluded[id] = true
	}
	for _, it := range items {
		if !excluded[it.ID] {
			candidates = append(candidates, it)
		}
	}
	return profile, candidates, nil
}

// strategyScores is one strategy's output: a score per candidate,
// aligned by index, plus the per-leg sub-score columns in hybrid mode.
type strategyScores struct {
	scores []float64
	sub    map[string][]float64
}

// score runs the requested strategy; on failure it walks the full
// fallback sequence from the top, skipping the strategy already
// attempted, until one succeeds. An empty profile short-circuits to
// recency: no content strategy has signal to work with.
func (e *Engine) score(ctx context.Context, requested Strategy, profile, candidates []Item, log zerolog.Logger) (Strategy, strategyScores) {
	if len(candidates) == 0 {
		return requested, strategyScores{scores: []float64{}}
	}
	if len(profile) == 0 && requested != StrategyRecency {
		log.Info().Msg("Empty profile, serving recency fallback")
		metrics.RankingFallbacks.WithLabelValues(requested.String(), StrategyRecency.String()).Inc()
		scores, _ := e.scorers.Recency.Score(ctx, profile, candidates)
		return StrategyRecency, strategyScores{scores: scores}
	}
	if requested == StrategyHybrid {
		return StrategyHybrid, e.scoreHybrid(ctx, profile, candidates, log)
	}

	chain := make([]Strategy, 0, len(fallbackOrder))
	chain = append(chain, requested)
	for _, st := range fallbackOrder {
		if st != requested {
			chain = append(chain, st)
		}
	}
	for i, st := range chain {
		scores, err := e.scorerFor(st).Score(ctx, profile, candidates)
		if err == nil {
			return st, strategyScores{scores: scores}
		}
		if i+1 < len(chain) {
			next := chain[i+1]
			log.Warn().Err(err).
				Str("failed", st.String()).
				Str("next", next.String()).
				Msg("Strategy failed, falling back")
			metrics.RankingFallbacks.WithLabelValues(st.String(), next.String()).Inc()
		}
	}

	// Unreachable in practice: recency cannot fail.
	metrics.RankingErrors.WithLabelValues("exhausted").Inc()
	return StrategyRecency, strategyScores{scores: make([]float64, len(candidates))}
}

// scoreHybrid fuses the embedding and lexical score columns. A failed
// embedding leg is replaced by recency scores rather than failing the
// whole request; the result keeps the hybrid tag either way.
func (e *Engine) scoreHybrid(ctx context.Context, profile, candidates []Item, log zerolog.Logger) strategyScores {
	embScores, err := e.scorers.Embedding.Score(ctx, profile, candidates)
	if err != nil {
		log.Warn().Err(err).Msg("Embedding leg failed, substituting recency scores")
		metrics.RankingFallbacks.WithLabelValues(StrategyEmbedding.String(), StrategyRecency.String()).Inc()
		embScores, _ = e.scorers.Recency.Score(ctx, profile, candidates)
	}
	lexScores, _ := e.scorers.Lexical.Score(ctx, profile, candidates)

	wE := e.cfg.Hybrid.EmbeddingWeight
	wL := e.cfg.Hybrid.LexicalWeight
	total := wE + wL

	fused := make([]float64, len(candidates))
	for i := range candidates {
		fused[i] = (wE*embScores[i] + wL*lexScores[i]) / total
	}
	return strategyScores{
		scores: fused,
		sub: map[string][]float64{
			StrategyEmbedding.String(): embScores,
			StrategyLexical.String():   lexScores,
		},
	}
}

func (e *Engine) scorerFor(st Strategy) Scorer {
	switch st {
	case StrategyEmbedding:
		return e.scorers.Embedding
	case StrategySemantic:
		return e.scorers.Semantic
	case StrategyGenerative:
		return e.scorers.Generative
	case StrategyLexical:
		return e.scorers.Lexical
	default:
		return e.scorers.Recency
	}
}

// finalize orders candidates by score and builds the capped output.
// The sort is stable and performed on unrounded scores, so candidates
// with equal scores keep their input order and rounding cannot change
// the ranking.
func (e *Engine) finalize(result strategyScores, candidates []Item, usedName string, limit int) []ScoredItem {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return result.scores[order[a]] > result.scores[order[b]]
	})

	if limit > len(order) {
		limit = len(order)
	}
	items := make([]ScoredItem, 0, limit)
	for _, idx := range order[:limit] {
		si := ScoredItem{
			Item:     candidates[idx],
			Score:    round4(result.scores[idx]),
			Strategy: usedName,
		}
		if result.sub != nil {
			si.Scores = make(map[string]float64, len(result.sub))
			for name, col := range result.sub {
				si.Scores[name] = round4(col[idx])
			}
		}
		items = append(items, si)
	}
	return items
}

// dedupeByText drops candidates whose scoring text duplicates an
// earlier candidate's. First occurrence wins.
func dedupeByText(candidates []Item) []Item {
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0:0]
	for _, it := range candidates {
		if seen[it.Text] {
			continue
		}
		seen[it.Text] = true
		out = append(out, it)
	}
	return out
}

// round4 rounds to four decimal places for presentation.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
