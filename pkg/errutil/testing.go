// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package errutil

import (
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries code. oops reports the code of
// the innermost coded layer, so this checks the most specific one.
func AssertErrorCode(tb testing.TB, err error, code string) {
	tb.Helper()
	require.Error(tb, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(tb, ok, "error %q carries no code", err)
	assert.Equal(tb, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext asserts that err was annotated with key=value
// somewhere along its wrap chain.
func AssertErrorContext(tb testing.TB, err error, key string, value any) {
	tb.Helper()
	require.Error(tb, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(tb, ok, "error %q carries no context", err)
	ctx := oopsErr.Context()
	got, found := ctx[key]
	keys := lo.Keys(ctx)
	slices.Sort(keys)
	require.True(tb, found, "error has no %q context; has %v", key, keys)
	assert.Equal(tb, value, got)
}

// AssertKind asserts both halves of a classified failure: the sentinel
// callers branch on and the code operators see in logs.
func AssertKind(tb testing.TB, err, sentinel error, code string) {
	tb.Helper()
	require.ErrorIs(tb, err, sentinel)
	AssertErrorCode(tb, err, code)
}
