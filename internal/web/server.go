// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package web serves Curio's public HTTP surface: the login and signup
// pages, the gated landing page, the read-only item API and the health
// probe.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/content"
	"github.com/curioweb/curio/internal/i18n"
	"github.com/curioweb/curio/internal/observability"
)

// DefaultStoreTimeout bounds each item store call made for a request.
const DefaultStoreTimeout = 5 * time.Second

// Config holds the Server's collaborators and settings.
type Config struct {
	Auth    *auth.Service
	Items   content.Repository
	Catalog *i18n.Catalog
	// Secret keys cookie signatures. At least MinSecretBytes long.
	Secret       []byte
	SecureCookie bool
	SessionTTL   time.Duration
	StoreTimeout time.Duration
	Metrics      *observability.Metrics
	Logger       *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the public HTTP handler.
type Server struct {
	auth         *auth.Service
	items        content.Repository
	catalog      *i18n.Catalog
	signer       *Signer
	secureCookie bool
	sessionTTL   time.Duration
	storeTimeout time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// New validates cfg and builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth service is required")
	}
	if cfg.Items == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("item repository is required")
	}
	if cfg.Catalog == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("message catalog is required")
	}
	signer, err := NewSigner(cfg.Secret)
	if err != nil {
		return nil, err
	}

	s := &Server{
		auth:         cfg.Auth,
		items:        cfg.Items,
		catalog:      cfg.Catalog,
		signer:       signer,
		secureCookie: cfg.SecureCookie,
		sessionTTL:   cfg.SessionTTL,
		storeTimeout: cfg.StoreTimeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = auth.DefaultSessionTTL
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = DefaultStoreTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignupForm)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.Handle("GET /main", s.requireSession(http.HandlerFunc(s.handleMain)))

	mux.HandleFunc("GET /items", s.handleListItems)
	mux.HandleFunc("GET /items/{id}", s.handleGetItem)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /change-language", s.handleChangeLanguage)

	return s.withRequestID(s.withAccessLog(mux))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.DebugContext(r.Context(), "response write failed", "error", err)
	}
}
