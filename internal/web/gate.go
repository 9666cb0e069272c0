// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"net/http"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/pkg/errutil"
)

// requireSession admits only requests carrying a valid session. Everyone
// else is redirected to the entry page. A storage failure while checking
// the session is logged and also redirects: the gate fails closed.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.auth.Authenticate(r.Context(), s.sessionToken(r))
		if err != nil {
			if classify(err) != kindUnauthenticated {
				errutil.LogErrorContext(r.Context(), s.logger, "session check failed", err)
			} else if _, cerr := r.Cookie(SessionCookie); cerr == nil {
				s.clearCookie(w, SessionCookie)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}
