// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/recommend"
	"github.com/cliprank/cliprank/internal/store"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	engine  *recommend.Engine
	catalog *store.Snapshot
	started time.Time
	version string
}

// NewHandlers builds the handler set.
func NewHandlers(engine *recommend.Engine, catalog *store.Snapshot, version string) *Handlers {
	return &Handlers{
		engine:  engine,
		catalog: catalog,
		started: time.Now(),
		version: version,
	}
}

// Health reports service liveness, catalog size and uptime.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        h.version,
		"videos":         h.catalog.Len(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Recommend serves POST /api/v1/recommend.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	strategy, ok := recommend.ParseStrategy(req.Strategy)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "unknown_strategy",
			"unknown strategy "+req.Strategy)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:       req.UserID,
		Strategy:     strategy,
		Limit:        req.Limit,
		DisableCache: req.DisableCache,
		RequestID:    logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Recommendation failed")
		respondError(w, r, http.StatusInternalServerError, "ranking_failed",
			"could not produce recommendations")
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// Compare serves POST /api/v1/recommend/compare, running several
// strategies side by side for one user.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	strats := make([]recommend.Strategy, 0, len(req.Strategies))
	for _, name := range req.Strategies {
		st, ok := recommend.ParseStrategy(name)
		if !ok {
			respondError(w, r, http.StatusBadRequest, "unknown_strategy",
				"unknown strategy "+name)
			return
		}
		strats = append(strats, st)
	}

	cmp, err := h.engine.Compare(r.Context(), req.UserID, strats, req.Limit)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("Comparison failed")
		respondError(w, r, http.StatusInternalServerError, "comparison_failed",
			"could not compare strategies")
		return
	}
	respondJSON(w, r, http.StatusOK, cmp)
}

// ListVideos serves GET /api/v1/videos.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.GetItems(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "catalog_failed",
			"could not list videos")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"videos": items,
		"count":  len(items),
	})
}

// ListUsers serves GET /api/v1/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.catalog.Users()
	respondJSON(w, r, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// RecordLike serves POST /api/v1/interactions/like.
func (h *Handlers) RecordLike(w http.ResponseWriter, r *http.Request) {
	h.recordInteraction(w, r, h.catalog.RecordLike)
}

// RecordView serves POST /api/v1/interactions/view.
func (h *Handlers) RecordView(w http.ResponseWriter, r *http.Request) {
	h.recordInteraction(w, r, h.catalog.RecordView)
}

func (h *Handlers) recordInteraction(w http.ResponseWriter, r *http.Request, record func(string, string) error) {
	var req interactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := record(req.UserID, req.ItemID); err != nil {
		if errors.Is(err, store.ErrUnknownItem) {
			respondError(w, r, http.StatusNotFound, "unknown_item",
				"item "+req.ItemID+" is not in the catalog")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "interaction_failed",
			"could not record interaction")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "recorded"})
}
