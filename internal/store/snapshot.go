// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

// Package store holds the in-memory catalog the ranking engine reads:
// the video pool and per-user like and view interactions, seeded from
// a JSON file at startup. Interactions can be recorded at runtime;
// the catalog itself is immutable for the process lifetime.
package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/recommend"
)

// ErrUnknownItem is returned when an interaction references an item
// that is not in the catalog.
var ErrUnknownItem = fmt.Errorf("unknown item")

// seedFile is the on-disk seed format.
type seedFile struct {
	Videos []seedVideo         `json:"videos"`
	Likes  map[string][]string `json:"likes"`
	Views  map[string][]string `json:"views"`
}

type seedVideo struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Comments  []string  `json:"comments"`
}

// Snapshot is the in-memory catalog. Safe for concurrent use: reads
// take a shared lock, interaction writes an exclusive one.
type Snapshot struct {
	mu    sync.RWMutex
	items []recommend.Item
	byID  map[string]recommend.Item
	likes map[string][]string
	views map[string][]string
}

// Load reads and validates a seed file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse builds a snapshot from seed JSON. Items keep file order;
// duplicate video IDs are rejected, interactions referencing unknown
// videos are dropped with a warning.
func Parse(data []byte) (*Snapshot, error) {
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(seed.Videos) == 0 {
		return nil, fmt.Errorf("seed file contains no videos")
	}

	s := &Snapshot{
		items: make([]recommend.Item, 0, len(seed.Videos)),
		byID:  make(map[string]recommend.Item, len(seed.Videos)),
		likes: make(map[string][]string),
		views: make(map[string][]string),
	}
	for _, v := range seed.Videos {
		if v.ID == "" {
			return nil, fmt.Errorf("video with empty id")
		}
		if _, dup := s.byID[v.ID]; dup {
			return nil, fmt.Errorf("duplicate video id %q", v.ID)
		}
		item := recommend.Item{
			ID:        v.ID,
			Caption:   v.Caption,
			Text:      scoringText(v),
			Author:    v.Author,
			CreatedAt: v.CreatedAt,
		}
		s.items = append(s.items, item)
		s.byID[v.ID] = item
	}

	s.likes = validInteractions(seed.Likes, s.byID, "like")
	s.views = validInteractions(seed.Views, s.byID, "view")

	logging.Info().
		Int("videos", len(s.items)).
		Int("users_with_likes", len(s.likes)).
		Msg("Catalog loaded")
	return s, nil
}

// scoringText joins the caption with comment text so the content
// strategies see engagement language, not just the caption. Items
// with no text at all get a placeholder so vectorizers never see an
// empty document.
func scoringText(v seedVideo) string {
	parts := make([]string, 0, 1+len(v.Comments))
	if strings.TrimSpace(v.Caption) != "" {
		parts = append(parts, v.Caption)
	}
	for _, c := range v.Comments {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return "untitled video"
	}
	return strings.Join(parts, " ")
}

// validInteractions filters interaction lists down to known items,
// deduplicating while preserving order.
func validInteractions(in map[string][]string, byID map[string]recommend.Item, kind string) map[string][]string {
	out := make(map[string][]string, len(in))
	for user, ids := range in {
		seen := make(map[string]bool, len(ids))
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				logging.Warn().
					Str("user_id", user).
					Str("item_id", id).
					Str("kind", kind).
					Msg("Dropping interaction with unknown item")
				continue
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			kept = append(kept, id)
		}
		if len(kept) > 0 {
			out[user] = kept
		}
	}
	return out
}

// GetItems returns all catalog items in seed order.
func (s *Snapshot) GetItems(_ context.Context) ([]recommend.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

// GetLikedItemIDs returns the user's liked item IDs in like order.
func (s *Snapshot) GetLikedItemIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.likes[userID]...), nil
}

// GetViewedItemIDs returns the user's viewed item IDs in view order.
func (s *Snapshot) GetViewedItemIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.views[userID]...), nil
}

// RecordLike appends a like for the user. Idempotent per (user, item).
func (s *Snapshot) RecordLike(userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record(s.likes, s.byID, userID, itemID)
}

// RecordView appends a view for the user. Idempotent per (user, item).
func (s *Snapshot) RecordView(userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record(s.views, s.byID, userID, itemID)
}

func record(m map[string][]string, byID map[string]recommend.Item, userID, itemID string) error {
	if _, ok := byID[itemID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	for _, id := range m[userID] {
		if id == itemID {
			return nil
		}
	}
	m[userID] = append(m[userID], itemID)
	return nil
}

// Reload re-reads the seed file and atomically replaces the catalog
// and interactions. On parse failure the current state is kept.
func (s *Snapshot) Reload(path string) error {
	fresh, err := Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fresh.items
	s.byID = fresh.byID
	s.likes = fresh.likes
	s.views = fresh.views
	return nil
}

// Users returns the IDs of all users with recorded interactions,
// sorted for stable output.
func (s *Snapshot) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]bool, len(s.likes)+len(s.views))
	for u := range s.likes {
		set[u] = true
	}
	for u := range s.views {
		set[u] = true
	}
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Len returns the catalog size.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
