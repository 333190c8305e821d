// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package api

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared request validator.
var validate = validator.New()

// recommendRequest is the body of POST /api/v1/recommend.
type recommendRequest struct {
	UserID       string `json:"user_id" validate:"required,max=128"`
	Strategy     string `json:"strategy" validate:"omitempty,max=32"`
	Limit        int    `json:"limit" validate:"omitempty,min=1,max=100"`
	DisableCache bool   `json:"disable_cache"`
}

// compareRequest is the body of POST /api/v1/recommend/compare.
type compareRequest struct {
	UserID     string   `json:"user_id" validate:"required,max=128"`
	Strategies []string `json:"strategies" validate:"omitempty,max=6,dive,max=32"`
	Limit      int      `json:"limit" validate:"omitempty,min=1,max=100"`
}

// interactionRequest is the body of the like and view endpoints.
type interactionRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	ItemID string `json:"item_id" validate:"required,max=128"`
}
