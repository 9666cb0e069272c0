// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package config loads Curio's runtime configuration.
//
// Precedence, lowest first: flag defaults, the optional YAML file given by
// --config, then flags set on the command line. Secrets never come from
// files or flags; see Env.
package config

import (
	"runtime"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Defaults.
const (
	DefaultHTTPAddr      = ":8080"
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
	DefaultBackend       = BackendPostgres
	DefaultStoreTimeout  = 5 * time.Second
	DefaultSessionTTL    = 24 * time.Hour
	DefaultRefresh       = 5 * time.Minute
	DefaultReapInterval  = 10 * time.Minute
	DefaultMigrateOnBoot = true
)

// Config is the resolved configuration.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
	Session SessionConfig `koanf:"session"`
	Hasher  HasherConfig  `koanf:"hasher"`
}

// HTTPConfig configures the public listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StoreConfig selects and tunes the storage backend.
type StoreConfig struct {
	Backend string        `koanf:"backend"`
	Timeout time.Duration `koanf:"timeout"`
	Migrate bool          `koanf:"migrate"`
	// Seed names a YAML item file loaded into the memory store at startup.
	// Postgres is seeded once with "curio items seed".
	Seed string `koanf:"seed"`
}

// SessionConfig tunes session lifetime.
type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	Refresh      time.Duration `koanf:"refresh"`
	ReapInterval time.Duration `koanf:"reap_interval"`
	SecureCookie bool          `koanf:"secure_cookie"`
}

// HasherConfig bounds password hashing.
type HasherConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":             "http.addr",
	"metrics-addr":          "metrics.addr",
	"log-format":            "log.format",
	"log-level":             "log.level",
	"store-backend":         "store.backend",
	"store-timeout":         "store.timeout",
	"migrate":               "store.migrate",
	"seed":                  "store.seed",
	"session-ttl":           "session.ttl",
	"session-refresh":       "session.refresh",
	"session-reap-interval": "session.reap_interval",
	"secure-cookie":         "session.secure_cookie",
	"hasher-concurrency":    "hasher.concurrency",
}

// RegisterFlags adds the configuration flags, with their defaults, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "public HTTP listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn or error)")
	fs.String("store-backend", DefaultBackend, "storage backend (postgres or memory)")
	fs.Duration("store-timeout", DefaultStoreTimeout, "timeout for each storage call made on behalf of a request")
	fs.Bool("migrate", DefaultMigrateOnBoot, "apply pending migrations on startup (postgres only)")
	fs.String("seed", "", "YAML item file to load into the memory store on startup")
	fs.Duration("session-ttl", DefaultSessionTTL, "session lifetime")
	fs.Duration("session-refresh", DefaultRefresh, "how long a session trusts its cached identity before re-reading the user")
	fs.Duration("session-reap-interval", DefaultReapInterval, "interval between expired session sweeps")
	fs.Bool("secure-cookie", false, "mark cookies Secure (serve behind TLS)")
	fs.Int("hasher-concurrency", 0, "maximum concurrent password hashes (0 = number of CPUs)")
}

// Load resolves configuration from the optional YAML file at path and the
// flags in fs. fs must have been prepared with RegisterFlags.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	// Unchanged flags only fill keys the file left unset.
	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(key string, value any, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf(format, args...)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", c.HTTP.Addr, "http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", c.Log.Format, "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Store.Backend != BackendPostgres && c.Store.Backend != BackendMemory {
		return invalid("store.backend", c.Store.Backend, "store.backend must be %q or %q, got %q",
			BackendPostgres, BackendMemory, c.Store.Backend)
	}
	if c.Store.Seed != "" && c.Store.Backend != BackendMemory {
		return invalid("store.seed", c.Store.Seed,
			"store.seed only applies to the memory backend; use 'curio items seed' for %s", c.Store.Backend)
	}
	durations := []struct {
		key   string
		value time.Duration
	}{
		{"store.timeout", c.Store.Timeout},
		{"session.ttl", c.Session.TTL},
		{"session.refresh", c.Session.Refresh},
		{"session.reap_interval", c.Session.ReapInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return invalid(d.key, d.value.String(), "%s must be positive", d.key)
		}
	}
	if c.Hasher.Concurrency < 0 {
		return invalid("hasher.concurrency", c.Hasher.Concurrency, "hasher.concurrency cannot be negative")
	}
	return nil
}

// HasherConcurrency returns the effective hashing bound.
func (c *Config) HasherConcurrency() int {
	if c.Hasher.Concurrency == 0 {
		return runtime.NumCPU()
	}
	return c.Hasher.Concurrency
}
