// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"net/http"
	"strings"

	"github.com/curioweb/curio/internal/web/views"
)

// Flash message keys.
const (
	flashSignupOK           = "flash.signup_ok"
	flashInvalidCredentials = "flash.invalid_credentials"
	flashDuplicateUsername  = "flash.duplicate_username"
	flashInvalidInput       = "flash.invalid_input"
	flashInternal           = "flash.internal"
)

var flashKeys = map[string]bool{
	flashSignupOK:           true,
	flashInvalidCredentials: true,
	flashDuplicateUsername:  true,
	flashInvalidInput:       true,
	flashInternal:           true,
}

// setFlash queues a message for the next page render. The cookie holds
// only a kind and a catalog key, never user-supplied text.
func (s *Server) setFlash(w http.ResponseWriter, kind views.FlashKind, key string) {
	value := string(kind) + ":" + key
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    s.signer.Sign(FlashCookie, value),
		Path:     "/",
		MaxAge:   int(flashCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending flash, returning its kind and key.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) (views.FlashKind, string, bool) {
	c, err := r.Cookie(FlashCookie)
	if err != nil {
		return "", "", false
	}
	s.clearCookie(w, FlashCookie)

	value, ok := s.signer.Verify(FlashCookie, c.Value)
	if !ok {
		return "", "", false
	}
	kind, key, ok := strings.Cut(value, ":")
	if !ok || !flashKeys[key] {
		return "", "", false
	}
	switch views.FlashKind(kind) {
	case views.FlashSuccess, views.FlashError:
		return views.FlashKind(kind), key, true
	default:
		return "", "", false
	}
}
