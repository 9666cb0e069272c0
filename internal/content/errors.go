// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package content

import "errors"

var (
	// ErrNotFound is returned when an item does not exist or is tombstoned.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidItem is returned when item fields fail validation.
	ErrInvalidItem = errors.New("invalid item")
)
