// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"net/http"
	"net/url"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/curioweb/curio/internal/i18n"
	"github.com/curioweb/curio/internal/web/views"
)

// requestLocale picks the page language: the locale cookie, then
// Accept-Language, then the default.
func requestLocale(r *http.Request) language.Tag {
	var prefs []string
	if c, err := r.Cookie(LocaleCookie); err == nil {
		prefs = append(prefs, c.Value)
	}
	prefs = append(prefs, r.Header.Get("Accept-Language"))
	return i18n.Match(prefs...)
}

// handleChangeLanguage stores the chosen locale and sends the caller back
// where they came from. Unsupported languages fall back to the default.
func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	tag := i18n.Match(r.URL.Query().Get("lang"))
	http.SetCookie(w, &http.Cookie{
		Name:     LocaleCookie,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int(localeCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
}

// backTarget returns the same-host path from the Referer header, or "/".
// Off-site referers are ignored so the endpoint cannot bounce visitors
// elsewhere.
func backTarget(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	// Browsers read "/\host" like "//host".
	if u.Path == "" || u.Path[0] != '/' || (len(u.Path) > 1 && (u.Path[1] == '/' || u.Path[1] == '\\')) {
		return "/"
	}
	target := u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

// languages lists the switcher entries, each labeled in its own language.
func languages(active language.Tag) []views.Language {
	supported := i18n.Supported()
	out := make([]views.Language, 0, len(supported))
	for _, tag := range supported {
		out = append(out, views.Language{
			Tag:    tag.String(),
			Label:  display.Self.Name(tag),
			Active: tag == active,
		})
	}
	return out
}
