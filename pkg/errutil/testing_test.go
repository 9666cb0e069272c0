// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/curioweb/curio/pkg/errutil"
)

var errTaken = errors.New("taken")

func TestAssertErrorCode_InnermostCodeWins(t *testing.T) {
	inner := oops.Code("USER_DUPLICATE_USERNAME").Wrap(errTaken)
	err := oops.With("operation", "signup").Wrap(inner)
	errutil.AssertErrorCode(t, err, "USER_DUPLICATE_USERNAME")
}

func TestAssertErrorContext_FindsWrappedValues(t *testing.T) {
	inner := oops.With("username", "alice").Errorf("insert failed")
	err := oops.Code("SIGNUP_FAILED").With("attempt", 2).Wrap(inner)
	errutil.AssertErrorContext(t, err, "username", "alice")
	errutil.AssertErrorContext(t, err, "attempt", 2)
}

func TestAssertKind(t *testing.T) {
	err := oops.Code("USER_DUPLICATE_USERNAME").With("username", "alice").Wrap(errTaken)
	errutil.AssertKind(t, err, errTaken, "USER_DUPLICATE_USERNAME")
}
