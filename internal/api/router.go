// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package api exposes the ranking engine over HTTP: recommendation and
// comparison endpoints, interaction recording, catalog listing, health
// and Prometheus metrics.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds HTTP server configuration.
type Config struct {
	// ListenAddr is the bind address, e.g. ":8080".
	ListenAddr string `json:"listen_addr" koanf:"listen_addr"`

	// CORSOrigins lists allowed origins. Empty disables CORS headers.
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per window. Zero disables
	// rate limiting.
	RateLimit int `json:"rate_limit" koanf:"rate_limit"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `json:"rate_limit_window" koanf:"rate_limit_window"`

	// RequestTimeout bounds handler execution.
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		RateLimit:       120,
		RateLimitWindow: time.Minute,
		RequestTimeout:  60 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %d", c.RateLimit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// NewRouter builds the HTTP routing tree around a handler set.
func NewRouter(cfg Config, h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:           300,
			AllowCredentials: false,
		}))
	}
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
	}

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/recommend", h.Recommend)
		r.Post("/recommend/compare", h.Compare)
		r.Get("/videos", h.ListVideos)
		r.Get("/users", h.ListUsers)
		r.Post("/interactions/like", h.RecordLike)
		r.Post("/interactions/view", h.RecordView)
	})

	return r
}
