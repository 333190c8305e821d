// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
	"github.com/cliprank/cliprank/internal/recommend/strategies"
	"github.com/cliprank/cliprank/internal/store"
)

const apiTestSeed = `{
	"videos": [
		{"id": "v1", "caption": "Epic surfing waves", "author": "kai", "created_at": "2026-07-01T10:00:00Z", "comments": ["so good"]},
		{"id": "v2", "caption": "Huge surfing waves compilation", "author": "kai", "created_at": "2026-07-02T10:00:00Z", "comments": []},
		{"id": "v3", "caption": "Pasta carbonara recipe", "author": "gio", "created_at": "2026-07-03T10:00:00Z", "comments": []},
		{"id": "v4", "caption": "Gardening for beginners", "author": "flo", "created_at": "2026-07-04T10:00:00Z", "comments": []}
	],
	"likes": {"u1": ["v1"]},
	"views": {}
}`

// newTestServer wires a real engine over the test catalog. The remote
// endpoints are left unconfigured, so remote strategies degrade to the
// local ones, which is exactly what the HTTP layer should surface.
func newTestServer(t *testing.T) (*httptest.Server, *store.Snapshot) {
	t.Helper()

	catalog, err := store.Parse([]byte(apiTestSeed))
	if err != nil {
		t.Fatalf("parsing seed: %v", err)
	}

	engineCfg := recommend.DefaultConfig()
	client := inference.NewClient(inference.DefaultOptions())
	engine, err := recommend.NewEngine(engineCfg, catalog, recommend.Scorers{
		Embedding:  strategies.NewEmbedding(client),
		Semantic:   strategies.NewSemantic(client, engineCfg.Semantic),
		Generative: strategies.NewGenerative(client, engineCfg.Generative),
		Lexical:    strategies.NewLexical(engineCfg.Lexical),
		Recency:    strategies.NewRecency(engineCfg.RecencyFloor),
	})
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	router := NewRouter(cfg, NewHandlers(engine, catalog, "test"))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, catalog
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/recommend",
		`{"user_id": "u1", "strategy": "lexical", "limit": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var body recommend.Response
	decodeBody(t, resp, &body)

	if body.Metadata.StrategyUsed != "lexical" {
		t.Errorf("StrategyUsed = %q, want lexical", body.Metadata.StrategyUsed)
	}
	if body.Metadata.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3 (liked item excluded)", body.Metadata.TotalCandidates)
	}
	if len(body.Items) == 0 || len(body.Items) > 3 {
		t.Fatalf("got %d items, want 1..3", len(body.Items))
	}
	// The surfing video should outrank pasta and gardening for a
	// surfing-liking user.
	if body.Items[0].Item.ID != "v2" {
		t.Errorf("top = %s, want v2", body.Items[0].Item.ID)
	}
	for _, it := range body.Items {
		if it.Item.ID == "v1" {
			t.Error("liked item v1 appeared in results")
		}
	}
}

func TestRecommendEndpointRemoteFallsBack(t *testing.T) {
	srv, _ := newTestServer(t)

	// Embedding is not configured; the request degrades down the chain
	// to lexical.
	resp := postJSON(t, srv.URL+"/api/v1/recommend",
		`{"user_id": "u1", "strategy": "embedding"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body recommend.Response
	decodeBody(t, resp, &body)
	if body.Metadata.StrategyRequested != "embedding" {
		t.Errorf("StrategyRequested = %q, want embedding", body.Metadata.StrategyRequested)
	}
	if body.Metadata.StrategyUsed != "lexical" {
		t.Errorf("StrategyUsed = %q, want lexical after fallback", body.Metadata.StrategyUsed)
	}
}

func TestRecommendEndpointColdStart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/recommend", `{"user_id": "brand-new"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body recommend.Response
	decodeBody(t, resp, &body)
	if body.Metadata.StrategyUsed != "fallback_recent" {
		t.Errorf("StrategyUsed = %q, want fallback_recent", body.Metadata.StrategyUsed)
	}
	if body.Metadata.ProfileSize != 0 {
		t.Errorf("ProfileSize = %d, want 0", body.Metadata.ProfileSize)
	}
	// Newest first.
	if body.Items[0].Item.ID != "v4" {
		t.Errorf("top = %s, want newest v4", body.Items[0].Item.ID)
	}
}

func TestRecommendEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{{{`, http.StatusBadRequest},
		{"missing user_id", `{"strategy": "lexical"}`, http.StatusBadRequest},
		{"unknown strategy", `{"user_id": "u1", "strategy": "astrology"}`, http.StatusBadRequest},
		{"unknown field", `{"user_id": "u1", "bogus": true}`, http.StatusBadRequest},
		{"negative limit", `{"user_id": "u1", "limit": -2}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/recommend", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestCompareEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/recommend/compare",
		`{"user_id": "u1", "strategies": ["lexical", "recent"], "limit": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body recommend.Comparison
	decodeBody(t, resp, &body)
	if len(body.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(body.Results))
	}
	if body.Results["lexical"] == nil || body.Results["fallback_recent"] == nil {
		t.Errorf("results keys = %v, want lexical and fallback_recent", body.Results)
	}
}

func TestInteractionEndpoints(t *testing.T) {
	srv, catalog := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/interactions/like",
		`{"user_id": "u2", "item_id": "v3"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("like status = %d, want 200", resp.StatusCode)
	}
	liked, _ := catalog.GetLikedItemIDs(context.Background(), "u2")
	if len(liked) != 1 || liked[0] != "v3" {
		t.Errorf("liked = %v, want [v3]", liked)
	}

	resp = postJSON(t, srv.URL+"/api/v1/interactions/view",
		`{"user_id": "u2", "item_id": "v4"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view status = %d, want 200", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/v1/interactions/like",
		`{"user_id": "u2", "item_id": "ghost"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown item status = %d, want 404", resp.StatusCode)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/videos")
	if err != nil {
		t.Fatalf("GET /videos: %v", err)
	}
	var videos struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &videos)
	if videos.Count != 4 {
		t.Errorf("video count = %d, want 4", videos.Count)
	}

	resp, err = http.Get(srv.URL + "/api/v1/users")
	if err != nil {
		t.Fatalf("GET /users: %v", err)
	}
	var users struct {
		Users []string `json:"users"`
	}
	decodeBody(t, resp, &users)
	if len(users.Users) == 0 {
		t.Error("users list empty, want at least u1")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var body struct {
		Status string `json:"status"`
		Videos int    `json:"videos"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Videos != 4 {
		t.Errorf("videos = %d, want 4", body.Videos)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
