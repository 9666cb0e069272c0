// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Cookie names.
const (
	SessionCookie = "curio_session"
	FlashCookie   = "curio_flash"
	LocaleCookie  = "locale"
)

// Cookie lifetimes.
const (
	localeCookieMaxAge = 900 * time.Second
	flashCookieMaxAge  = time.Minute
)

// MinSecretBytes is the shortest accepted signing secret.
const MinSecretBytes = 32

// Signer authenticates cookie values with HMAC-SHA256. The MAC covers the
// cookie name as well as the value, so a value signed for one cookie is
// rejected under another.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer keyed by secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinSecretBytes {
		return nil, oops.Code("WEB_SECRET_WEAK").
			With("min_bytes", MinSecretBytes).
			Errorf("cookie secret must be at least %d bytes", MinSecretBytes)
	}
	return &Signer{key: append([]byte(nil), secret...)}, nil
}

// Sign returns value with its MAC appended.
func (s *Signer) Sign(name, value string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(s.mac(name, value))
}

// Verify returns the value inside signed if its MAC is valid for name.
func (s *Signer) Verify(name, signed string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, s.mac(name, value)) {
		return "", false
	}
	return value, true
}

func (s *Signer) mac(name, value string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(name))
	m.Write([]byte{0})
	m.Write([]byte(value))
	return m.Sum(nil)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.signer.Sign(SessionCookie, token),
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken returns the verified session token from r, or "".
// A badly signed cookie yields "" and is treated as no session at all.
func (s *Server) sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	token, ok := s.signer.Verify(SessionCookie, c.Value)
	if !ok {
		return ""
	}
	return token
}
