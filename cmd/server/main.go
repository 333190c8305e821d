// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Command server runs the Cliprank HTTP service: it loads
// configuration, seeds the catalog, wires the ranking engine and its
// strategies, and serves the API under a supervision tree until
// SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cliprank/cliprank/internal/api"
	"github.com/cliprank/cliprank/internal/config"
	"github.com/cliprank/cliprank/internal/inference"
	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/recommend"
	"github.com/cliprank/cliprank/internal/recommend/strategies"
	"github.com/cliprank/cliprank/internal/store"
	"github.com/cliprank/cliprank/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Service failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("version", version).
		Str("listen_addr", cfg.Server.ListenAddr).
		Msg("Starting cliprank")

	catalog, err := store.Load(cfg.Catalog.SeedPath)
	if err != nil {
		return err
	}

	client := inference.NewClient(cfg.Inference)
	for _, endpoint := range []string{
		inference.EndpointEmbedding,
		inference.EndpointSimilarity,
		inference.EndpointGeneration,
	} {
		logging.Info().
			Str("endpoint", endpoint).
			Bool("configured", client.Configured(endpoint)).
			Msg("Remote inference endpoint")
	}

	engine, err := recommend.NewEngine(cfg.Engine, catalog, recommend.Scorers{
		Embedding:  strategies.NewEmbedding(client),
		Semantic:   strategies.NewSemantic(client, cfg.Engine.Semantic),
		Generative: strategies.NewGenerative(client, cfg.Engine.Generative),
		Lexical:    strategies.NewLexical(cfg.Engine.Lexical),
		Recency:    strategies.NewRecency(cfg.Engine.RecencyFloor),
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(cfg.Server, api.NewHandlers(engine, catalog, version))
	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.Config{})
	tree.Add(supervisor.NewHTTPService(server, 0))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
