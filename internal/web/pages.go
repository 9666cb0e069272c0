// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/observability"
	"github.com/curioweb/curio/internal/web/views"
	"github.com/curioweb/curio/pkg/errutil"
)

// page builds the per-request view context, consuming any pending flash.
func (s *Server) page(w http.ResponseWriter, r *http.Request) views.Page {
	tag := requestLocale(r)
	printer := s.catalog.Printer(tag)

	p := views.Page{
		Lang:      tag.String(),
		Languages: languages(tag),
		T: func(key string, args ...any) string {
			return printer.Sprintf(key, args...)
		},
	}
	if kind, key, ok := s.takeFlash(w, r); ok {
		p.Flash = &views.Flash{Kind: kind, Text: printer.Sprintf(key)}
	}
	return p
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.WarnContext(r.Context(), "page render failed", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, views.Index(s.page(w, r)))
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, views.Signup(s.page(w, r)))
}

func (s *Server) handleMain(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, views.Main(s.page(w, r), principal.Username, principal.IsPrivileged))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.setFlash(w, views.FlashError, flashInvalidCredentials)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// A fresh login replaces whatever session the browser held.
	if old := s.sessionToken(r); old != "" {
		if err := s.auth.Logout(r.Context(), old); err != nil {
			s.logger.WarnContext(r.Context(), "failed to revoke previous session", "error", err)
		}
	}

	token, principal, err := s.auth.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		kind := s.formFailure(r, "login", err)
		s.metrics.RecordLogin(outcomeFor(kind))
		s.setFlash(w, views.FlashError, flashKey(kind))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.metrics.RecordLogin(observability.OutcomeSuccess)
	s.logger.InfoContext(r.Context(), "user logged in", "user_id", principal.UserID.String())
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.setFlash(w, views.FlashError, flashInvalidInput)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	if _, err := s.auth.Signup(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password")); err != nil {
		kind := s.formFailure(r, "signup", err)
		s.metrics.RecordSignup(outcomeFor(kind))
		s.setFlash(w, views.FlashError, flashKey(kind))
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	s.metrics.RecordSignup(observability.OutcomeSuccess)
	s.setFlash(w, views.FlashSuccess, flashSignupOK)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := s.sessionToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.formFailure(r, "logout", err)
		}
	}
	s.clearCookie(w, SessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formFailure classifies a form submission error, logging internal ones
// in full. User-caused failures are only noted at debug level.
func (s *Server) formFailure(r *http.Request, action string, err error) errorKind {
	kind := classify(err)
	if kind == kindInternal {
		errutil.LogErrorContext(r.Context(), s.logger, action+" failed", err)
		return kind
	}
	s.logger.DebugContext(r.Context(), action+" rejected", "reason", kind.String())
	return kind
}

func outcomeFor(k errorKind) string {
	if k == kindInternal {
		return observability.OutcomeError
	}
	return observability.OutcomeRejected
}
