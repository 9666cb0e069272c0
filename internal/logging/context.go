// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package logging

import (
	"context"
	"log/slog"
)

type requestIDKey struct{}

// WithRequestID returns a context whose log records carry id as request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Discard returns a logger that drops everything, for tests and for CLI
// commands that report on stdout instead.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
