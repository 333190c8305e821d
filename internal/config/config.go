// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package config loads the service configuration from layered sources:
// built-in defaults, an optional YAML file, and CLIPRANK_-prefixed
// environment variables, in increasing priority.
package config

import (
	"fmt"

	"github.com/cliprank/cliprank/internal/api"
	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/recommend"
)

// Config is the full service configuration.
type Config struct {
	// Server holds HTTP server settings.
	Server api.Config `json:"server" koanf:"server"`

	// Logging holds log output settings.
	Logging LoggingConfig `json:"logging" koanf:"logging"`

	// Engine holds ranking engine settings.
	Engine recommend.Config `json:"engine" koanf:"engine"`

	// Inference holds remote model client settings.
	Inference inference.Options `json:"inference" koanf:"inference"`

	// Catalog holds the content catalog settings.
	Catalog CatalogConfig `json:"catalog" koanf:"catalog"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `json:"level" koanf:"level"`

	// Format is json or console.
	Format string `json:"format" koanf:"format"`
}

// CatalogConfig holds content catalog settings.
type CatalogConfig struct {
	// SeedPath is the JSON seed file holding videos and interactions.
	SeedPath string `json:"seed_path" koanf:"seed_path"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: api.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine:    recommend.DefaultConfig(),
		Inference: inference.DefaultOptions(),
		Catalog: CatalogConfig{
			SeedPath: "videos.json",
		},
	}
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	if c.Catalog.SeedPath == "" {
		return fmt.Errorf("catalog: seed_path must not be empty")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging: format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
