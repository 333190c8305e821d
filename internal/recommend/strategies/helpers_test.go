// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package strategies

import (
	"context"
	"time"

	"github.com/cliprank/cliprank/internal/recommend"
)

// fakeClient is an in-memory InferenceClient. Responses are returned
// in order, one per Invoke call; payloads are recorded for inspection.
type fakeClient struct {
	responses [][]byte
	err       error
	payloads  []any
	endpoints []string
}

func (f *fakeClient) Invoke(_ context.Context, endpointID string, payload any) ([]byte, error) {
	f.endpoints = append(f.endpoints, endpointID)
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeClient) Configured(string) bool {
	return true
}

func testItem(id, text string, age time.Duration) recommend.Item {
	return recommend.Item{
		ID:        id,
		Caption:   text,
		Text:      text,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(-age),
	}
}
