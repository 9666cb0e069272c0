// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package audit defines the audit record shape and its storage contract.
// No request flow records audit entries yet; the audit_records table exists
// so a writer can be added without a migration.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Record is one audited action.
type Record struct {
	ID        ulid.ULID
	UserID    *ulid.ULID
	Action    string
	Input     json.RawMessage
	Timestamp time.Time
}

// NewRecord builds a Record stamped with the current time. Input is encoded
// as JSON; a nil input is stored as SQL NULL.
func NewRecord(userID *ulid.ULID, action string, input any) (*Record, error) {
	if action == "" {
		return nil, oops.Code("AUDIT_INVALID_RECORD").Errorf("action is required")
	}
	r := &Record{
		ID:        ulid.Make(),
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return nil, oops.Code("AUDIT_INVALID_RECORD").With("action", action).Wrap(err)
		}
		r.Input = raw
	}
	return r, nil
}

// Repository persists audit records.
type Repository interface {
	Append(ctx context.Context, r *Record) error
	ListByUser(ctx context.Context, userID ulid.ULID, limit int) ([]*Record, error)
}
