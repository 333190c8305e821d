// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package inference

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-json"
)

// Remote model responses arrive in three shapes: a list of embedding
// vectors, a flat list of pairwise similarity scores, and generated
// free text. Hosted inference backends are loose about nesting, so the
// vector parser tolerates the token-level shape by mean-pooling.

// ParseVectors decodes an embedding response into one vector per input
// text. Accepts a single vector, a list of vectors, or a list of
// per-token vector lists (mean-pooled to one vector per input). All
// vectors must share a dimension; ragged rows are a malformed
// response, never partial data.
func ParseVectors(body []byte) ([][]float64, error) {
	var flat []float64
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return [][]float64{flat}, nil
	}

	var vectors [][]float64
	if err := json.Unmarshal(body, &vectors); err == nil && len(vectors) > 0 {
		for i, v := range vectors {
			if len(v) == 0 {
				return nil, fmt.Errorf("%w: empty vector at index %d", ErrRemoteMalformed, i)
			}
		}
		if err := sameDimension(vectors); err != nil {
			return nil, err
		}
		return vectors, nil
	}

	var tokens [][][]float64
	if err := json.Unmarshal(body, &tokens); err == nil && len(tokens) > 0 {
		pooled := make([][]float64, len(tokens))
		for i, tok := range tokens {
			v, err := meanPool(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: input %d: %v", ErrRemoteMalformed, i, err)
			}
			pooled[i] = v
		}
		if err := sameDimension(pooled); err != nil {
			return nil, err
		}
		return pooled, nil
	}

	return nil, fmt.Errorf("%w: unrecognized embedding payload", ErrRemoteMalformed)
}

// sameDimension rejects vector lists whose rows disagree in length.
func sameDimension(vectors [][]float64) error {
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector dimension %d != %d at index %d",
				ErrRemoteMalformed, len(v), dim, i)
		}
	}
	return nil
}

// meanPool averages per-token vectors into a single vector. All token
// vectors must share a dimension.
func meanPool(tokens [][]float64) ([]float64, error) {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return nil, fmt.Errorf("no token vectors")
	}
	dim := len(tokens[0])
	out := make([]float64, dim)
	for _, tok := range tokens {
		if len(tok) != dim {
			return nil, fmt.Errorf("inconsistent vector dimension %d != %d", len(tok), dim)
		}
		for i, f := range tok {
			out[i] += f
		}
	}
	for i := range out {
		out[i] /= float64(len(tokens))
	}
	return out, nil
}

// ParsePairwiseScores decodes a sentence-similarity response: one score
// per comparison sentence. want is the expected count; a mismatch is a
// malformed response, since scores align with candidates by position.
func ParsePairwiseScores(body []byte, want int) ([]float64, error) {
	var scores []float64
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteMalformed, err)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("%w: got %d scores, want %d", ErrRemoteMalformed, len(scores), want)
	}
	return scores, nil
}

// ParseGeneratedText extracts model output from a text-generation
// response. Accepts the list form, the bare object form, and a plain
// JSON string.
func ParseGeneratedText(body []byte) (string, error) {
	type generation struct {
		GeneratedText string `json:"generated_text"`
	}

	var list []generation
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].GeneratedText != "" {
		return list[0].GeneratedText, nil
	}

	var single generation
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}

	var raw string
	if err := json.Unmarshal(body, &raw); err == nil && raw != "" {
		return raw, nil
	}

	return "", fmt.Errorf("%w: no generated text in payload", ErrRemoteMalformed)
}

var digitRunPattern = regexp.MustCompile(`\d+`)

// ParseRankedIndices extracts an ordering from free-form model text.
// Every integer token in [1, n] is taken in order of first appearance
// and converted to a zero-based index; duplicates and out-of-range
// values are dropped. Returns nil when the text names no valid index.
func ParseRankedIndices(text string, n int) []int {
	if n < 1 {
		return nil
	}
	var order []int
	seen := make(map[int]bool, n)
	for _, tok := range digitRunPattern.FindAllString(text, -1) {
		v, err := strconv.Atoi(tok)
		if err != nil || v < 1 || v > n {
			continue
		}
		idx := v - 1
		if seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
		if len(order) == n {
			break
		}
	}
	return order
}
