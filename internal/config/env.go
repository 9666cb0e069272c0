// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
)

// MinSessionSecretBytes is the shortest accepted session secret.
const MinSessionSecretBytes = 32

// Env holds secrets read from the process environment.
type Env struct {
	SessionSecret string `env:"CURIO_SESSION_SECRET"`
	DatabaseURL   string `env:"DATABASE_URL"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	return parseEnv(env.Options{})
}

// ParseEnvFrom reads Env from the given variables instead of the process
// environment.
func ParseEnvFrom(vars map[string]string) (Env, error) {
	return parseEnv(env.Options{Environment: vars})
}

func parseEnv(opts env.Options) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}
	return e, nil
}

// RequireSessionSecret returns the session secret, failing if it is absent
// or too short to key an HMAC safely.
func (e Env) RequireSessionSecret() ([]byte, error) {
	if e.SessionSecret == "" {
		return nil, oops.Code("CONFIG_SESSION_SECRET_MISSING").
			Errorf("CURIO_SESSION_SECRET environment variable is required")
	}
	if len(e.SessionSecret) < MinSessionSecretBytes {
		return nil, oops.Code("CONFIG_SESSION_SECRET_WEAK").
			With("min_bytes", MinSessionSecretBytes).
			Errorf("CURIO_SESSION_SECRET must be at least %d bytes", MinSessionSecretBytes)
	}
	return []byte(e.SessionSecret), nil
}

// RequireDatabaseURL returns the database URL, failing if it is absent.
func (e Env) RequireDatabaseURL() (string, error) {
	if e.DatabaseURL == "" {
		return "", oops.Code("CONFIG_DATABASE_URL_MISSING").
			Errorf("DATABASE_URL environment variable is required")
	}
	return e.DatabaseURL, nil
}
