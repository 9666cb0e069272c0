// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package postgres implements content.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/content"
	"github.com/curioweb/curio/internal/store"
)

const itemColumns = `id, pictures, title_canonical, title_localized,
	description_canonical, description_localized, created_at, updated_at, deleted_at`

// ItemRepository implements content.Repository using PostgreSQL.
type ItemRepository struct {
	pool store.Pool
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(pool store.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// ListLive returns live items ordered by creation.
func (r *ItemRepository) ListLive(ctx context.Context) ([]*content.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM content_items
		WHERE deleted_at IS NULL
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").With("operation", "list live items").Wrap(err)
	}
	defer rows.Close()

	var items []*content.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").With("operation", "iterate items").Wrap(err)
	}
	return items, nil
}

// GetLive returns a live item by id.
func (r *ItemRepository) GetLive(ctx context.Context, id ulid.ULID) (*content.Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM content_items
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String())

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("id", id.String()).Wrap(content.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").
			With("operation", "get live item").
			With("id", id.String()).
			Wrap(err)
	}
	return item, nil
}

// Create stores a new item.
func (r *ItemRepository) Create(ctx context.Context, item *content.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO content_items (id, pictures, title_canonical, title_localized,
			description_canonical, description_localized, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		item.ID.String(),
		item.Pictures,
		item.TitleCanonical,
		item.TitleLocalized,
		item.DescriptionCanonical,
		item.DescriptionLocalized,
		item.CreatedAt,
	)
	if err != nil {
		return oops.Code("ITEM_CREATE_FAILED").
			With("operation", "insert item").
			With("id", item.ID.String()).
			Wrap(err)
	}
	return nil
}

// Tombstone marks a live item deleted. The row is kept.
func (r *ItemRepository) Tombstone(ctx context.Context, id ulid.ULID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE content_items
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String(), at.UTC())
	if err != nil {
		return oops.Code("ITEM_TOMBSTONE_FAILED").
			With("operation", "tombstone item").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ITEM_NOT_FOUND").With("id", id.String()).Wrap(content.ErrNotFound)
	}
	return nil
}

// scanItem scans one row. Callers handle pgx.ErrNoRows.
func scanItem(row pgx.Row) (*content.Item, error) {
	var (
		idStr string
		item  content.Item
	)
	err := row.Scan(
		&idStr,
		&item.Pictures,
		&item.TitleCanonical,
		&item.TitleLocalized,
		&item.DescriptionCanonical,
		&item.DescriptionLocalized,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ITEM_SCAN_FAILED").With("operation", "scan item").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ITEM_INVALID_ID").With("id", idStr).Wrap(err)
	}
	item.ID = id
	return &item, nil
}

// Compile-time interface check.
var _ content.Repository = (*ItemRepository)(nil)
