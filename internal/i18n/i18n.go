// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package i18n holds the UI message catalog and locale negotiation.
package i18n

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Default is the fallback locale.
var Default = language.English

var supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog is a loaded set of translations.
type Catalog struct {
	builder *catalog.Builder
	keys    map[language.Tag][]string
}

// Load reads the embedded locale files.
func Load() (*Catalog, error) {
	return LoadFS(localeFS)
}

// LoadFS reads locales/*.yaml from fsys. Every file must name a supported
// locale, and the default locale must be present.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, oops.Code("I18N_LOAD_FAILED").Wrap(err)
	}
	if len(paths) == 0 {
		return nil, oops.Code("I18N_LOAD_FAILED").Errorf("no locale files found")
	}
	sort.Strings(paths)

	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(Default)),
		keys:    make(map[language.Tag][]string),
	}
	for _, p := range paths {
		if err := c.addFile(fsys, p); err != nil {
			return nil, err
		}
	}
	if _, ok := c.keys[Default]; !ok {
		return nil, oops.Code("I18N_LOAD_FAILED").With("locale", Default.String()).Errorf("default locale missing")
	}
	return c, nil
}

func (c *Catalog) addFile(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return oops.Code("I18N_LOAD_FAILED").With("path", p).Wrap(err)
	}
	var file localeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return oops.Code("I18N_LOAD_FAILED").With("path", p).Wrap(err)
	}

	want := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if file.Locale != want {
		return oops.Code("I18N_LOAD_FAILED").
			With("path", p).
			Errorf("locale %q must match file name %q", file.Locale, want)
	}
	tag, err := language.Parse(file.Locale)
	if err != nil {
		return oops.Code("I18N_LOAD_FAILED").With("path", p).Wrap(err)
	}
	if !isSupported(tag) {
		return oops.Code("I18N_LOAD_FAILED").With("locale", file.Locale).Errorf("unsupported locale")
	}

	keys := make([]string, 0, len(file.Messages))
	for key, msg := range file.Messages {
		if err := c.builder.SetString(tag, key, msg); err != nil {
			return oops.Code("I18N_LOAD_FAILED").With("path", p).With("key", key).Wrap(err)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	c.keys[tag] = keys
	return nil
}

// Keys returns the message keys defined for tag, sorted.
func (c *Catalog) Keys(tag language.Tag) []string {
	return append([]string(nil), c.keys[tag]...)
}

// Printer returns a printer for tag backed by this catalog.
func (c *Catalog) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(c.builder))
}

// Supported returns the supported locales, default first.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match maps a requested language to the closest supported locale.
// Anything unparseable or unsupported resolves to Default.
func Match(requested ...string) language.Tag {
	tags := make([]language.Tag, 0, len(requested))
	for _, r := range requested {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if parsed, _, err := language.ParseAcceptLanguage(r); err == nil {
			tags = append(tags, parsed...)
		}
	}
	if len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

func isSupported(tag language.Tag) bool {
	for _, s := range supported {
		if s == tag {
			return true
		}
	}
	return false
}
