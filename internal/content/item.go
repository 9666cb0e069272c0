// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package content holds content items and their soft-delete visibility
// rules. Read paths only ever see live items: a tombstoned item looks
// exactly like one that never existed.
package content

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// State is the visibility state of an item.
type State string

// Item visibility states. Live -> Tombstoned is the only transition.
const (
	StateLive       State = "live"
	StateTombstoned State = "tombstoned"
)

// Item is a piece of site content.
type Item struct {
	ID                   ulid.ULID
	Pictures             []string
	TitleCanonical       string
	TitleLocalized       string
	DescriptionCanonical string
	DescriptionLocalized string
	CreatedAt            time.Time
	UpdatedAt            *time.Time
	DeletedAt            *time.Time
}

// Text is a canonical/localized pair.
type Text struct {
	Canonical string
	Localized string
}

// NewItem creates a validated live Item.
func NewItem(pictures []string, title, description Text) (*Item, error) {
	item := &Item{
		ID:                   ulid.Make(),
		Pictures:             append([]string(nil), pictures...),
		TitleCanonical:       title.Canonical,
		TitleLocalized:       title.Localized,
		DescriptionCanonical: description.Canonical,
		DescriptionLocalized: description.Localized,
		CreatedAt:            time.Now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks required fields.
func (i *Item) Validate() error {
	if len(i.Pictures) == 0 {
		return oops.Code("ITEM_INVALID").With("field", "pictures").Wrapf(ErrInvalidItem, "at least one picture is required")
	}
	for n, p := range i.Pictures {
		if strings.TrimSpace(p) == "" {
			return oops.Code("ITEM_INVALID").
				With("field", "pictures").
				With("index", n).
				Wrapf(ErrInvalidItem, "picture reference cannot be blank")
		}
	}
	required := []struct {
		field string
		value string
	}{
		{"title.canonical", i.TitleCanonical},
		{"title.localized", i.TitleLocalized},
		{"description.canonical", i.DescriptionCanonical},
		{"description.localized", i.DescriptionLocalized},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return oops.Code("ITEM_INVALID").With("field", r.field).Wrapf(ErrInvalidItem, "%s is required", r.field)
		}
	}
	return nil
}

// State reports whether the item is live or tombstoned.
func (i *Item) State() State {
	if i.DeletedAt != nil {
		return StateTombstoned
	}
	return StateLive
}

// IsLive is shorthand for State() == StateLive.
func (i *Item) IsLive() bool {
	return i.DeletedAt == nil
}

// Repository manages item persistence.
type Repository interface {
	// ListLive returns every live item in insertion order. The result is
	// unbounded.
	ListLive(ctx context.Context) ([]*Item, error)

	// GetLive returns a live item. A missing or tombstoned id returns an
	// error wrapping ErrNotFound.
	GetLive(ctx context.Context, id ulid.ULID) (*Item, error)

	// Create stores a new live item.
	Create(ctx context.Context, item *Item) error

	// Tombstone marks a live item deleted at the given time. It fails with
	// ErrNotFound if the item is missing or already tombstoned.
	Tombstone(ctx context.Context, id ulid.ULID, at time.Time) error
}

// ParseID parses an item id from untrusted input. Malformed ids cannot name
// a live item, so they fail with ErrNotFound.
func ParseID(raw string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("ITEM_NOT_FOUND").With("id", raw).Wrap(ErrNotFound)
	}
	return id, nil
}
