// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/curioweb/curio/internal/content"
)

// itemJSON is the wire form of a live item. There is deliberately no
// deleted_at: tombstoned items are never serialized.
type itemJSON struct {
	ID          string     `json:"id"`
	Pictures    []string   `json:"pictures"`
	Title       textJSON   `json:"title"`
	Description textJSON   `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type textJSON struct {
	Canonical string `json:"canonical"`
	Localized string `json:"localized"`
}

func toItemJSON(item *content.Item) itemJSON {
	pictures := item.Pictures
	if pictures == nil {
		pictures = []string{}
	}
	return itemJSON{
		ID:          item.ID.String(),
		Pictures:    pictures,
		Title:       textJSON{Canonical: item.TitleCanonical, Localized: item.TitleLocalized},
		Description: textJSON{Canonical: item.DescriptionCanonical, Localized: item.DescriptionLocalized},
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt,
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	items, err := s.items.ListLive(ctx)
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}

	out := make([]itemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toItemJSON(item))
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := content.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
	defer cancel()

	item, err := s.items.GetLive(ctx, id)
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toItemJSON(item))
}
