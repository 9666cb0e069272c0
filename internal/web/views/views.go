// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package views renders Curio's HTML pages as templ components.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// FlashKind styles a flash message.
type FlashKind string

// Flash kinds.
const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message shown above the page body.
type Flash struct {
	Kind FlashKind
	Text string
}

// Language is one entry of the language switcher.
type Language struct {
	Tag    string
	Label  string
	Active bool
}

// Page carries what every page needs.
type Page struct {
	Lang      string
	Languages []Language
	Flash     *Flash
	// T translates a message key.
	T func(key string, args ...any) string
}

// Index is the entry page with the login form.
func Index(p Page) templ.Component {
	return layout(p, p.T("index.heading"), templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeAll(w,
			`<h1>`, esc(p.T("index.heading")), `</h1>`,
			credentialsForm("/login", p.T("form.login"), p),
			`<p>`, esc(p.T("index.no_account")), ` <a href="/signup">`, esc(p.T("index.signup_link")), `</a></p>`,
		)
	}))
}

// Signup is the account creation page.
func Signup(p Page) templ.Component {
	return layout(p, p.T("signup.heading"), templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeAll(w,
			`<h1>`, esc(p.T("signup.heading")), `</h1>`,
			credentialsForm("/signup", p.T("form.signup"), p),
			`<p><a href="/">`, esc(p.T("signup.back")), `</a></p>`,
		)
	}))
}

// Main is the landing page shown after login.
func Main(p Page, username string, privileged bool) templ.Component {
	return layout(p, p.T("site.title"), templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		parts := []string{`<h1>`, esc(p.T("main.heading", username)), `</h1>`}
		if privileged {
			parts = append(parts, `<p class="privileged">`, esc(p.T("main.privileged")), `</p>`)
		}
		parts = append(parts,
			`<ul><li><a href="/items">`, esc(p.T("main.items_link")), `</a></li>`,
			`<li><a href="/logout">`, esc(p.T("main.logout")), `</a></li></ul>`,
		)
		return writeAll(w, parts...)
	}))
}

func credentialsForm(action, submit string, p Page) string {
	return `<form method="post" action="` + esc(action) + `">` +
		`<label>` + esc(p.T("form.username")) + ` <input name="username" autocomplete="username" required></label>` +
		`<label>` + esc(p.T("form.password")) + ` <input name="password" type="password" required></label>` +
		`<button type="submit">` + esc(submit) + `</button></form>`
}

func layout(p Page, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeAll(w,
			`<!DOCTYPE html><html lang="`, esc(p.Lang), `"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), `</title></head><body>`,
			languageSwitcher(p),
		); err != nil {
			return err
		}
		if p.Flash != nil {
			if err := writeAll(w,
				`<div class="flash flash-`, esc(string(p.Flash.Kind)), `" role="status">`, esc(p.Flash.Text), `</div>`,
			); err != nil {
				return err
			}
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return writeAll(w, `</body></html>`)
	})
}

func languageSwitcher(p Page) string {
	out := `<nav aria-label="` + esc(p.T("nav.language")) + `">`
	for _, l := range p.Languages {
		if l.Active {
			out += `<strong>` + esc(l.Label) + `</strong> `
			continue
		}
		href := templ.URL("/change-language?lang=" + l.Tag)
		out += `<a href="` + esc(string(href)) + `">` + esc(l.Label) + `</a> `
	}
	return out + `</nav>`
}

func esc(s string) string {
	return templ.EscapeString(s)
}

func writeAll(w io.Writer, parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	return nil
}
