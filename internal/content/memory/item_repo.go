// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package memory provides an in-process content.Repository.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/content"
)

// ItemRepository implements content.Repository in memory. Items are kept
// in insertion order and never physically removed.
type ItemRepository struct {
	mu    sync.RWMutex
	order []ulid.ULID
	items map[ulid.ULID]content.Item
}

// NewItemRepository creates an empty ItemRepository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[ulid.ULID]content.Item)}
}

// ListLive returns live items in insertion order.
func (r *ItemRepository) ListLive(ctx context.Context) ([]*content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*content.Item, 0, len(r.order))
	for _, id := range r.order {
		item := r.items[id]
		if !item.IsLive() {
			continue
		}
		out = append(out, cloneItem(item))
	}
	return out, nil
}

// GetLive returns a live item by id.
func (r *ItemRepository) GetLive(ctx context.Context, id ulid.ULID) (*content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || !item.IsLive() {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id.String()).Wrap(content.ErrNotFound)
	}
	return cloneItem(item), nil
}

// Create stores a new item.
func (r *ItemRepository) Create(ctx context.Context, item *content.Item) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("ITEM_CREATE_FAILED").Wrap(err)
	}
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return oops.Code("ITEM_CREATE_FAILED").With("id", item.ID.String()).Errorf("item already exists")
	}
	r.items[item.ID] = *cloneItem(*item)
	r.order = append(r.order, item.ID)
	return nil
}

// Tombstone marks a live item deleted.
func (r *ItemRepository) Tombstone(ctx context.Context, id ulid.ULID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("ITEM_TOMBSTONE_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.IsLive() {
		return oops.Code("ITEM_NOT_FOUND").With("id", id.String()).Wrap(content.ErrNotFound)
	}
	deletedAt := at.UTC()
	item.DeletedAt = &deletedAt
	item.UpdatedAt = &deletedAt
	r.items[id] = item
	return nil
}

func cloneItem(item content.Item) *content.Item {
	item.Pictures = append([]string(nil), item.Pictures...)
	if item.UpdatedAt != nil {
		t := *item.UpdatedAt
		item.UpdatedAt = &t
	}
	if item.DeletedAt != nil {
		t := *item.DeletedAt
		item.DeletedAt = &t
	}
	return &item
}

// Compile-time interface check.
var _ content.Repository = (*ItemRepository)(nil)
