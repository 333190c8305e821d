// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package inference provides the HTTP client for hosted model
// endpoints. It owns the retry and backoff policy, per-endpoint
// circuit breaking, and an advisory response cache; callers hand it a
// JSON-serializable payload and get raw response bytes back.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/cliprank/cliprank/internal/cache"
	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/metrics"
)

// Well-known endpoint identifiers. Each maps to a model route under
// the configured base URL.
const (
	EndpointEmbedding  = "embedding"
	EndpointSimilarity = "similarity"
	EndpointGeneration = "generation"
)

// maxResponseBytes bounds how much of a remote response is read.
const maxResponseBytes = 4 << 20

// Options configures the inference client.
type Options struct {
	// BaseURL is the inference API root, without trailing slash.
	BaseURL string `json:"base_url" koanf:"base_url"`

	// APIKey is the bearer token. Optional; some deployments allow
	// anonymous access with tighter rate limits.
	APIKey string `json:"api_key" koanf:"api_key"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// MaxRetries is the total attempt budget per invocation.
	MaxRetries int `json:"max_retries" koanf:"max_retries"`

	// RetryBaseDelay scales the linear backoff: attempt n waits
	// n * RetryBaseDelay, capped at RetryMaxDelay.
	RetryBaseDelay time.Duration `json:"retry_base_delay" koanf:"retry_base_delay"`

	// RetryMaxDelay caps any single backoff wait.
	RetryMaxDelay time.Duration `json:"retry_max_delay" koanf:"retry_max_delay"`

	// RateLimitDelay is the wait after a 429 when the response carries
	// no Retry-After header.
	RateLimitDelay time.Duration `json:"rate_limit_delay" koanf:"rate_limit_delay"`

	// RetryOn429 enables waiting out rate limits instead of failing
	// the invocation immediately.
	RetryOn429 bool `json:"retry_on_429" koanf:"retry_on_429"`

	// Models maps endpoint identifiers to model routes. An endpoint
	// absent from the map is not configured for this deployment.
	Models map[string]string `json:"models" koanf:"models"`

	// CacheSize is the advisory response cache capacity in entries.
	CacheSize int `json:"cache_size" koanf:"cache_size"`

	// CacheTTL is the advisory response cache entry lifetime.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`
}

// DefaultOptions returns production defaults. Models is left empty;
// deployments opt in to each remote endpoint explicitly.
func DefaultOptions() Options {
	return Options{
		BaseURL:        "https://api-inference.huggingface.co/models",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
		RetryMaxDelay:  20 * time.Second,
		RateLimitDelay: 10 * time.Second,
		RetryOn429:     true,
		Models:         map[string]string{},
		CacheSize:      1024,
		CacheTTL:       5 * time.Minute,
	}
}

// Validate checks the options for nonsensical values.
func (o *Options) Validate() error {
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if o.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be >= 1, got %d", o.MaxRetries)
	}
	if o.RetryBaseDelay < 0 || o.RetryMaxDelay < 0 || o.RateLimitDelay < 0 {
		return fmt.Errorf("retry delays must be non-negative")
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", o.CacheSize)
	}
	return nil
}

type cacheBypassKey struct{}

// WithCacheDisabled marks the context so Invoke skips the advisory
// response cache for reads and writes.
func WithCacheDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheBypassKey{}, true)
}

func cacheDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(cacheBypassKey{}).(bool)
	return v
}

// Client invokes hosted inference endpoints with retries, per-endpoint
// circuit breaking and advisory response caching. Safe for concurrent
// use.
type Client struct {
	opts       Options
	httpClient *http.Client
	breakers   map[string]*gobreaker.CircuitBreaker[[]byte]
	respCache  *cache.LRU
}

// NewClient builds a client from opts. One circuit breaker is created
// per configured endpoint; unconfigured endpoints fail fast with
// ErrNotConfigured.
func NewClient(opts Options) *Client {
	c := &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breakers:   make(map[string]*gobreaker.CircuitBreaker[[]byte], len(opts.Models)),
	}
	if opts.CacheSize > 0 {
		c.respCache = cache.NewLRU(opts.CacheSize, opts.CacheTTL)
	}
	for endpointID := range opts.Models {
		c.breakers[endpointID] = newBreaker(endpointID)
	}
	return c
}

func newBreaker(endpointID string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "inference-" + endpointID,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(endpointID).Set(breakerStateValue(to))
			logging.Warn().
				Str("endpoint", endpointID).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Inference circuit breaker state change")
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// Configured reports whether an endpoint has a model route and can be
// invoked.
func (c *Client) Configured(endpointID string) bool {
	return c.opts.BaseURL != "" && c.opts.Models[endpointID] != ""
}

// Invoke POSTs payload to the endpoint's model route and returns the
// raw response body. Warm-up (503) and transport failures are retried
// with linear backoff; rate limits (429) wait out the advertised delay
// when RetryOn429 is set. Identical payloads may be served from the
// advisory cache unless the context disables it.
func (c *Client) Invoke(ctx context.Context, endpointID string, payload any) ([]byte, error) {
	model, ok := c.opts.Models[endpointID]
	if !ok || model == "" || c.opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, endpointID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling inference payload: %w", err)
	}

	useCache := c.respCache != nil && !cacheDisabled(ctx)
	cacheKey := endpointID + ":" + strconv.FormatUint(xxhash.Sum64(body), 16)
	if useCache {
		if cached, ok := c.respCache.Get(cacheKey); ok {
			metrics.InferenceCacheHits.WithLabelValues(endpointID).Inc()
			return cached, nil
		}
		metrics.InferenceCacheMisses.WithLabelValues(endpointID).Inc()
	}

	start := time.Now()
	url := c.opts.BaseURL + "/" + model

	breaker := c.breakers[endpointID]
	resp, err := breaker.Execute(func() ([]byte, error) {
		return c.invokeWithRetries(ctx, endpointID, url, body)
	})
	metrics.InferenceDuration.WithLabelValues(endpointID).Observe(time.Since(start).Seconds())

	switch {
	case err == gobreaker.ErrOpenState, err == gobreaker.ErrTooManyRequests:
		metrics.InferenceRequests.WithLabelValues(endpointID, "rejected").Inc()
		return nil, fmt.Errorf("%w: %s circuit open", ErrRemoteUnavailable, endpointID)
	case err != nil:
		metrics.InferenceRequests.WithLabelValues(endpointID, "failure").Inc()
		return nil, err
	}

	metrics.InferenceRequests.WithLabelValues(endpointID, "success").Inc()
	if useCache {
		c.respCache.Put(cacheKey, resp)
	}
	return resp, nil
}

// invokeWithRetries runs the attempt loop. Attempt n is followed by a
// wait of n * RetryBaseDelay (capped) before attempt n+1, except after
// a 429 where the advertised or configured rate-limit delay applies.
func (c *Client) invokeWithRetries(ctx context.Context, endpointID, url string, body []byte) ([]byte, error) {
	log := logging.Ctx(ctx).With().Str("endpoint", endpointID).Logger()

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}

		respBody, status, retryAfter, err := c.doAttempt(ctx, url, body)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			metrics.InferenceRetries.WithLabelValues(endpointID, "transport").Inc()
			log.Warn().Err(err).Int("attempt", attempt).Msg("Inference transport failure")
			if err := c.wait(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return respBody, nil

		case status == http.StatusServiceUnavailable:
			// Hosted models report 503 while loading; the model is
			// warming up and a later attempt can succeed.
			lastErr = fmt.Errorf("%w: model warming up (503)", ErrRemoteUnavailable)
			metrics.InferenceRetries.WithLabelValues(endpointID, "warmup").Inc()
			log.Info().Int("attempt", attempt).Msg("Model warming up, retrying")
			if err := c.wait(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}

		case status == http.StatusTooManyRequests:
			if !c.opts.RetryOn429 {
				return nil, fmt.Errorf("%w: rate limited (429)", ErrRemoteUnavailable)
			}
			lastErr = fmt.Errorf("%w: rate limited (429)", ErrRemoteUnavailable)
			metrics.InferenceRetries.WithLabelValues(endpointID, "rate_limited").Inc()
			delay := c.rateLimitDelay(retryAfter)
			log.Warn().Dur("delay", delay).Int("attempt", attempt).Msg("Rate limited, backing off")
			if err := c.wait(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}

		case status >= 500:
			lastErr = fmt.Errorf("%w: server error (%d)", ErrRemoteUnavailable, status)
			metrics.InferenceRetries.WithLabelValues(endpointID, "transport").Inc()
			log.Warn().Int("status", status).Int("attempt", attempt).Msg("Inference server error")
			if err := c.wait(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}

		default:
			// Client errors other than 429 will not improve on retry.
			return nil, fmt.Errorf("%w: unexpected status %d", ErrRemoteUnavailable, status)
		}
	}
	return nil, lastErr
}

// doAttempt performs one HTTP exchange and returns the body, status
// code and Retry-After header value.
func (c *Client) doAttempt(ctx context.Context, url string, body []byte) ([]byte, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, "", err
	}
	return respBody, resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// backoff returns the linear wait before the attempt after n.
func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * c.opts.RetryBaseDelay
	if d > c.opts.RetryMaxDelay {
		d = c.opts.RetryMaxDelay
	}
	return d
}

// rateLimitDelay picks the 429 wait: the server's Retry-After when
// present and sane, otherwise the configured delay. Capped at
// RetryMaxDelay either way.
func (c *Client) rateLimitDelay(retryAfter string) time.Duration {
	delay := c.opts.RateLimitDelay
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
	}
	if delay > c.opts.RetryMaxDelay {
		delay = c.opts.RetryMaxDelay
	}
	return delay
}

// wait sleeps for d or until the context is done.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
