// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/httpapi"
	"github.com/holomush/sessiond/internal/logging"
	"github.com/holomush/sessiond/internal/store"
	"github.com/holomush/sessiond/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the account API",
		Long: `Serve the account API and, unless metrics-addr is empty, the
metrics and health endpoints. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, autoMigrate, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServeWithDeps runs the service until a signal, a server failure or
// ctx ends. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, autoMigrate bool, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database.url is required (set DATABASE_URL or --database-url)")
	}

	logger := logging.SetDefault("sessiond", version, cfg.Log.Format, cmd.ErrOrStderr())

	logger.Info("starting sessiond",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"hasher", cfg.Auth.Hasher)

	db, err := deps.AccountDBFactory(ctx, cfg.Database)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	if autoMigrate {
		if err := migrateUp(deps.MigratorFactory, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	svc, err := newService(cfg, db, logger)
	if err != nil {
		return err
	}
	logger.Info("session service ready", "session_ttl", svc.SessionTTL())

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	handlerOpts := []httpapi.HandlerOption{
		httpapi.WithLogger(logger),
		httpapi.WithCookie(httpapi.CookieOptions{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSiteMode(),
		}),
	}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, store.Readiness(db))
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		if metrics := obsServer.Metrics(); metrics != nil {
			handlerOpts = append(handlerOpts, httpapi.WithMetrics(metrics))
		}
	}

	apiServer := deps.APIServerFactory(cfg.HTTP.Addr, httpapi.NewHandler(svc, handlerOpts...))
	apiErrCh, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				errutil.LogError(logger, "failed to stop observability server during cleanup", stopErr)
			}
		}
		return oops.With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("sessiond listening on", apiServer.Addr())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, ctx.Err()) {
			runErr = cause
		}
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping api server", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

func newService(cfg *config.Config, db auth.AccountStore, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewHasher(cfg.Auth.Hasher)
	if err != nil {
		return nil, err
	}
	return auth.NewService(db, hasher, auth.NewRandomTokenIssuer(cfg.Auth.TokenBytes),
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithLogger(logger),
		auth.WithVerifyBeforeInvalidate(cfg.Auth.VerifyBeforeInvalidate))
}

func migrateUp(factory func(string) (SchemaMigrator, error), databaseURL string) (err error) {
	m, err := factory(databaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := m.Up(); err != nil {
		return oops.With("operation", "apply migrations").Wrap(err)
	}
	return nil
}

// monitorServerErrors cancels ctx with a SERVER_FAILED cause when a server
// reports a failure. It exits when an error arrives, the channel closes or
// ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelCauseFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel(oops.Code("SERVER_FAILED").With("server", serverName).Wrap(err))
		}
	case <-ctx.Done():
	}
}
