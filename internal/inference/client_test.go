// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testOptions(baseURL string) Options {
	opts := DefaultOptions()
	opts.BaseURL = baseURL
	opts.Timeout = 2 * time.Second
	opts.RetryBaseDelay = time.Millisecond
	opts.RetryMaxDelay = 5 * time.Millisecond
	opts.RateLimitDelay = time.Millisecond
	opts.Models = map[string]string{
		EndpointEmbedding: "test/embedding-model",
	}
	return opts
}

func TestInvokeSuccess(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[[0.1, 0.2]]`))
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.APIKey = "hf_testkey"
	client := NewClient(opts)

	body, err := client.Invoke(context.Background(), EndpointEmbedding, map[string]any{"inputs": []string{"hello"}})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if string(body) != `[[0.1, 0.2]]` {
		t.Errorf("body = %s", body)
	}
	if gotPath != "/test/embedding-model" {
		t.Errorf("path = %q, want /test/embedding-model", gotPath)
	}
	if gotAuth != "Bearer hf_testkey" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestInvokeNotConfigured(t *testing.T) {
	client := NewClient(testOptions("http://127.0.0.1:1"))

	_, err := client.Invoke(context.Background(), EndpointGeneration, "payload")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestInvokeRetriesWarmup(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "Model is currently loading", "estimated_time": 20}`))
			return
		}
		w.Write([]byte(`[[1.0]]`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(srv.URL))

	body, err := client.Invoke(context.Background(), EndpointEmbedding, "x")
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if string(body) != `[[1.0]]` {
		t.Errorf("body = %s", body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxRetries = 3
	client := NewClient(opts)

	_, err := client.Invoke(context.Background(), EndpointEmbedding, "x")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestInvokeRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[0.8]`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(srv.URL))

	body, err := client.Invoke(context.Background(), EndpointEmbedding, "x")
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if string(body) != `[0.8]` {
		t.Errorf("body = %s", body)
	}
}

func TestInvokeRateLimitNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.RetryOn429 = false
	client := NewClient(opts)

	_, err := client.Invoke(context.Background(), EndpointEmbedding, "x")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestInvokeBadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(testOptions(srv.URL))

	_, err := client.Invoke(context.Background(), EndpointEmbedding, "x")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestInvokeServesFromCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[[0.5]]`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(srv.URL))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.Invoke(ctx, EndpointEmbedding, "same payload"); err != nil {
			t.Fatalf("Invoke %d error: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (cache should absorb repeats)", got)
	}
}

func TestInvokeCacheDisabledByContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[[0.5]]`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(srv.URL))
	ctx := WithCacheDisabled(context.Background())

	for i := 0; i < 2; i++ {
		if _, err := client.Invoke(ctx, EndpointEmbedding, "same payload"); err != nil {
			t.Fatalf("Invoke %d error: %v", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2 (cache disabled)", got)
	}
}

func TestInvokeContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.RetryBaseDelay = 10 * time.Second
	opts.RetryMaxDelay = 10 * time.Second
	client := NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Invoke(ctx, EndpointEmbedding, "x")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %s, want prompt return", elapsed)
	}
}

func TestInvokeCircuitBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := testOptions(srv.URL)
	opts.MaxRetries = 1
	client := NewClient(opts)
	ctx := WithCacheDisabled(context.Background())

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		if _, err := client.Invoke(ctx, EndpointEmbedding, i); err == nil {
			t.Fatalf("Invoke %d succeeded, want failure", i)
		}
	}

	srv.Close()
	_, err := client.Invoke(ctx, EndpointEmbedding, "after trip")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable while breaker open", err)
	}
}

func TestConfigured(t *testing.T) {
	client := NewClient(testOptions("http://example.invalid"))

	if !client.Configured(EndpointEmbedding) {
		t.Error("Configured(embedding) = false, want true")
	}
	if client.Configured(EndpointSimilarity) {
		t.Error("Configured(similarity) = true, want false")
	}
	if client.Configured(EndpointGeneration) {
		t.Error("Configured(generation) = true, want false")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"zero timeout", func(o *Options) { o.Timeout = 0 }, true},
		{"zero retries", func(o *Options) { o.MaxRetries = 0 }, true},
		{"negative delay", func(o *Options) { o.RetryBaseDelay = -time.Second }, true},
		{"negative cache", func(o *Options) { o.CacheSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
