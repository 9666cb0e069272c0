// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package xdg locates Curio's files under the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "curio"

// ConfigFileName is the config file looked up in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for curio.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", oops.Code("XDG_HOME_UNKNOWN").Wrap(err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigFile returns ConfigDir/config.yaml when that file exists.
// An absent file yields ("", nil).
func DefaultConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ConfigFileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", oops.Code("XDG_STAT_FAILED").With("path", path).Wrap(err)
	case info.IsDir():
		return "", oops.Code("XDG_CONFIG_IS_DIR").With("path", path).Errorf("%s is a directory", path)
	}
	return path, nil
}
