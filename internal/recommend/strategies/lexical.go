// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cliprank/cliprank/internal/recommend"
)

// Lexical scores candidates by TF-IDF cosine similarity against the
// centroid of the user's liked items. Fully local and deterministic:
// given the same profile and candidates it always produces the same
// scores, which is what makes it a safe fallback for the remote
// strategies.
type Lexical struct {
	cfg recommend.LexicalConfig
}

// NewLexical builds the lexical strategy.
func NewLexical(cfg recommend.LexicalConfig) *Lexical {
	return &Lexical{cfg: cfg}
}

// Name returns the strategy's wire tag.
func (l *Lexical) Name() string {
	return recommend.StrategyLexical.String()
}

// Score vectorizes profile and candidate texts over a shared
// vocabulary and returns each candidate's cosine similarity to the
// mean profile vector. Never returns an error; an empty vocabulary
// yields all-zero scores.
func (l *Lexical) Score(_ context.Context, profile, candidates []recommend.Item) ([]float64, error) {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 || len(profile) == 0 {
		return scores, nil
	}

	docs := append(scoringTexts(profile), scoringTexts(candidates)...)
	vectors := vectorize(docs, l.cfg.MaxFeatures, l.cfg.MaxDocFreq)

	profileVec := meanVector(vectors[:len(profile)])
	if profileVec == nil {
		return scores, nil
	}
	for i := range candidates {
		scores[i] = cosineSimilarity(profileVec, vectors[len(profile)+i])
	}
	return scores, nil
}

// tokenPattern matches runs of two or more word characters; one-letter
// tokens carry no signal and are dropped.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// terms tokenizes a document into its vocabulary terms: lowercase
// unigrams with stopwords removed, plus bigrams formed over the
// stopword-filtered token sequence.
func terms(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if !englishStopwords[t] {
			tokens = append(tokens, t)
		}
	}

	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// vectorize builds L2-normalized TF-IDF vectors for docs over a
// vocabulary capped at maxFeatures terms, excluding terms present in
// more than maxDocFreq of the documents. Smoothed IDF:
// ln((1+N)/(1+df)) + 1.
func vectorize(docs []string, maxFeatures int, maxDocFreq float64) [][]float64 {
	n := len(docs)
	docTerms := make([][]string, n)
	docFreq := make(map[string]int)
	termCount := make(map[string]int)

	for i, doc := range docs {
		docTerms[i] = terms(doc)
		seen := make(map[string]bool)
		for _, t := range docTerms[i] {
			termCount[t]++
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}

	// Drop overly common terms, then keep the most frequent up to the
	// feature cap, alphabetical on ties for determinism.
	kept := make([]string, 0, len(docFreq))
	for t, df := range docFreq {
		if float64(df) > maxDocFreq*float64(n) {
			continue
		}
		kept = append(kept, t)
	}
	sort.Slice(kept, func(a, b int) bool {
		if termCount[kept[a]] != termCount[kept[b]] {
			return termCount[kept[a]] > termCount[kept[b]]
		}
		return kept[a] < kept[b]
	})
	if maxFeatures > 0 && len(kept) > maxFeatures {
		kept = kept[:maxFeatures]
	}

	index := make(map[string]int, len(kept))
	idf := make([]float64, len(kept))
	for i, t := range kept {
		index[t] = i
		idf[i] = math.Log(float64(1+n)/float64(1+docFreq[t])) + 1
	}

	vectors := make([][]float64, n)
	for i := range docs {
		v := make([]float64, len(kept))
		for _, t := range docTerms[i] {
			if j, ok := index[t]; ok {
				v[j] += idf[j]
			}
		}
		l2Normalize(v)
		vectors[i] = v
	}
	return vectors
}

// l2Normalize scales v to unit length in place. No-op on zero vectors.
func l2Normalize(v []float64) {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
