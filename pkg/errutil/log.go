// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package errutil helps log and assert on oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError with a context, so handlers that read the
// context (trace ids, request ids) can enrich the record.
// For oops errors it logs the message, code and context map; other errors
// are logged by their string.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.ErrorContext(ctx, msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if fields := oopsErr.Context(); len(fields) > 0 {
		attrs = append(attrs, "context", fields)
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
