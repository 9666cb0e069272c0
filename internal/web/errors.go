// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/content"
	"github.com/curioweb/curio/pkg/errutil"
)

// errorKind is the transport-facing class of a failure.
type errorKind int

const (
	kindInternal errorKind = iota
	kindDuplicateUsername
	kindInvalidCredentials
	kindInvalidInput
	kindNotFound
	kindUnauthenticated
)

func (k errorKind) String() string {
	switch k {
	case kindDuplicateUsername:
		return "duplicate_username"
	case kindInvalidCredentials:
		return "invalid_credentials"
	case kindInvalidInput:
		return "invalid_input"
	case kindNotFound:
		return "not_found"
	case kindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// classify maps an error to its kind. Anything unrecognized, including
// timeouts, is internal.
func classify(err error) errorKind {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		return kindDuplicateUsername
	case errors.Is(err, auth.ErrInvalidCredentials):
		return kindInvalidCredentials
	case errors.Is(err, auth.ErrInvalidInput):
		return kindInvalidInput
	case errors.Is(err, content.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		return kindNotFound
	case errors.Is(err, auth.ErrUnauthenticated):
		return kindUnauthenticated
	default:
		return kindInternal
	}
}

// flashKey picks the user-facing message for a failed form submission.
func flashKey(k errorKind) string {
	switch k {
	case kindDuplicateUsername:
		return flashDuplicateUsername
	case kindInvalidCredentials:
		return flashInvalidCredentials
	case kindInvalidInput:
		return flashInvalidInput
	default:
		return flashInternal
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSONError is the error boundary for JSON routes. Only a fixed short
// message is ever sent; internal detail goes to the log.
func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	if classify(err) == kindNotFound {
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	errutil.LogErrorContext(r.Context(), s.logger, "request failed", err)
	s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
