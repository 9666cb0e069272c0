// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/config"
	"github.com/curioweb/curio/internal/i18n"
	"github.com/curioweb/curio/internal/logging"
	"github.com/curioweb/curio/internal/observability"
	"github.com/curioweb/curio/internal/web"
	"github.com/curioweb/curio/internal/xdg"
	"github.com/curioweb/curio/pkg/errutil"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// serveDeps holds the factories runServe uses. Nil fields get defaults.
type serveDeps struct {
	// ConfigFile finds a config file when --config is not given.
	ConfigFile  func() (string, error)
	Env         func() (config.Env, error)
	OpenBackend func(ctx context.Context, cfg *config.Config, env config.Env, logger *slog.Logger) (*backend, error)
	// Listening is called with the bound public address once the server
	// accepts connections.
	Listening func(addr net.Addr)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the public HTTP server, the session reaper and, unless disabled,
the metrics/health server. Stops cleanly on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, deps *serveDeps) error {
	if deps == nil {
		deps = &serveDeps{}
	}
	if deps.Env == nil {
		deps.Env = config.ParseEnv
	}
	if deps.OpenBackend == nil {
		deps.OpenBackend = openBackend
	}
	if deps.ConfigFile == nil {
		deps.ConfigFile = xdg.DefaultConfigFile
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var err error

	cfgPath := configFile
	if cfgPath == "" {
		if cfgPath, err = deps.ConfigFile(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "curio",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	env, err := deps.Env()
	if err != nil {
		return err
	}
	secret, err := env.RequireSessionSecret()
	if err != nil {
		return err
	}

	logger.Info("starting curio",
		"http_addr", cfg.HTTP.Addr,
		"store_backend", cfg.Store.Backend,
	)

	be, err := deps.OpenBackend(ctx, cfg, env, logger)
	if err != nil {
		return oops.With("operation", "open store").Wrap(err)
	}
	defer be.Close()

	if cfg.Store.Seed != "" {
		n, err := seedItems(ctx, be.Items, cfg.Store.Seed)
		if err != nil {
			return err
		}
		logger.Info("seeded items", "count", n, "path", cfg.Store.Seed)
	}

	registry := observability.NewRegistry()
	metrics := observability.NewMetrics(registry)

	handler, err := buildHandler(cfg, be, secret, metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reaper := auth.NewReaper(be.Sessions, cfg.Session.ReapInterval, metrics.SessionsReaped,
		auth.WithReaperTimeout(cfg.Store.Timeout),
		auth.WithReaperLogger(logger))
	reaper.Start(ctx)
	defer reaper.Stop()

	var obsServer *observability.Server
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, registry, be.Ready, logger)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	httpErrCh := make(chan error, 1)
	go func() {
		defer close(httpErrCh)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
	}()

	logger.Info("http server listening", "addr", listener.Addr().String())
	cmd.Println("Curio listening on", listener.Addr().String())
	if deps.Listening != nil {
		deps.Listening(listener.Addr())
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-httpErrCh:
		serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(logger, "http server shutdown failed", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

// buildHandler assembles the auth stack and the web server on be.
func buildHandler(cfg *config.Config, be *backend, secret []byte, metrics *observability.Metrics, logger *slog.Logger) (http.Handler, error) {
	sessions, err := auth.NewSessionManager(be.Sessions, be.Users,
		auth.WithSessionTTL(cfg.Session.TTL),
		auth.WithPrincipalRefresh(cfg.Session.Refresh),
		auth.WithSessionLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewAuthService(be.Users, sessions, auth.NewArgon2idHasher(cfg.HasherConcurrency()),
		auth.WithStoreTimeout(cfg.Store.Timeout),
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	catalog, err := i18n.Load()
	if err != nil {
		return nil, err
	}

	server, err := web.New(web.Config{
		Auth:         svc,
		Items:        be.Items,
		Catalog:      catalog,
		Secret:       secret,
		SecureCookie: cfg.Session.SecureCookie,
		SessionTTL:   cfg.Session.TTL,
		StoreTimeout: cfg.Store.Timeout,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return server.Handler(), nil
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		errutil.LogError(logger, "observability server shutdown failed", err)
	}
}

// monitorServerErrors cancels the process context when a server fails.
// It exits when an error arrives, the channel closes, or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
