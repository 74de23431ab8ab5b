// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth/memstore"
	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/httpapi"
	"github.com/holomush/sessiond/internal/observability"
	"github.com/holomush/sessiond/pkg/errutil"
)

// memAccountDB is an AccountDB over the in-memory store.
type memAccountDB struct {
	*memstore.Store
	closed atomic.Bool
}

func (db *memAccountDB) Ping(context.Context) error { return nil }
func (db *memAccountDB) Close()                     { db.closed.Store(true) }

// notifyingAPIServer reports its bound address once started.
type notifyingAPIServer struct {
	APIServer
	started chan string
}

func (s *notifyingAPIServer) Start() (<-chan error, error) {
	errCh, err := s.APIServer.Start()
	if err == nil {
		s.started <- s.APIServer.Addr()
	}
	return errCh, err
}

type notifyingObsServer struct {
	ObservabilityServer
	started chan string
}

func (s *notifyingObsServer) Start() (<-chan error, error) {
	errCh, err := s.ObservabilityServer.Start()
	if err == nil {
		s.started <- s.ObservabilityServer.Addr()
	}
	return errCh, err
}

// stubServer is an APIServer or ObservabilityServer with canned results.
type stubServer struct {
	startErr error
	stopped  atomic.Bool
}

func (s *stubServer) Start() (<-chan error, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return make(chan error), nil
}

func (s *stubServer) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func (s *stubServer) Addr() string { return "127.0.0.1:1" }

func (s *stubServer) Metrics() *observability.Metrics { return nil }

func newTestServeCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile = ""
	t.Setenv("DATABASE_URL", "")

	cmd := NewServeCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestServe_EndToEnd(t *testing.T) {
	cmd := newTestServeCmd(t,
		"--http-addr", "127.0.0.1:0",
		"--metrics-addr", "127.0.0.1:0",
		"--database-url", "postgres://unused/sessiond",
		"--log-format", "text")

	db := &memAccountDB{Store: memstore.New()}
	apiStarted := make(chan string, 1)
	obsStarted := make(chan string, 1)
	deps := &ServeDeps{
		AccountDBFactory: func(_ context.Context, cfg config.DatabaseConfig) (AccountDB, error) {
			assert.Equal(t, "postgres://unused/sessiond", cfg.URL)
			return db, nil
		},
		ObservabilityServerFactory: func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return &notifyingObsServer{ObservabilityServer: observability.NewServer(addr, ready), started: obsStarted}
		},
		APIServerFactory: func(addr string, handler http.Handler) APIServer {
			return &notifyingAPIServer{APIServer: httpapi.NewServer(addr, handler), started: apiStarted}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cmd, false, deps) }()

	var apiAddr, obsAddr string
	select {
	case obsAddr = <-obsStarted:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("observability server did not start")
	}
	select {
	case apiAddr = <-apiStarted:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("api server did not start")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+apiAddr+"/account",
		strings.NewReader(`{"account_name":"bob","password":"hunter2"}`))
	require.NoError(t, err)
	req.Header.Set(httpapi.FingerprintHeader, "dev1")
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, db.SessionCount())

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "http://"+obsAddr+"/metrics", http.NoBody)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), `sessiond_auth_attempts_total{operation="register",result="ok"} 1`)

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "http://"+obsAddr+"/healthz/readiness", http.NoBody)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
	assert.True(t, db.closed.Load(), "database closed on shutdown")
}

func TestServe_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantKey string
	}{
		{"missing database url", nil, "database.url"},
		{"bad log format", []string{"--database-url", "postgres://db/x", "--log-format", "xml"}, "log.format"},
		{"bad hasher", []string{"--database-url", "postgres://db/x", "--hasher", "md5"}, "auth.hasher"},
		{"zero ttl", []string{"--database-url", "postgres://db/x", "--session-ttl", "0s"}, "auth.session_ttl"},
		{"bad http addr", []string{"--database-url", "postgres://db/x", "--http-addr", "nope"}, "http.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestServeCmd(t, tt.args...)
			err := runServeWithDeps(context.Background(), cmd, false, &ServeDeps{
				AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
					t.Fatal("database opened despite invalid configuration")
					return nil, nil
				},
			})
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.wantKey)
		})
	}
}

func TestServe_DatabaseFailure(t *testing.T) {
	cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "")
	err := runServeWithDeps(context.Background(), cmd, false, &ServeDeps{
		AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
			return nil, oops.Code("DB_CONNECT_FAILED").Errorf("connection refused")
		},
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	errutil.AssertErrorContext(t, err, "operation", "connect to database")
}

func TestServe_AutoMigrate(t *testing.T) {
	t.Run("applies migrations before serving", func(t *testing.T) {
		cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "")
		fake := &fakeMigrator{}
		api := &stubServer{startErr: errors.New("stop here")}

		err := runServeWithDeps(context.Background(), cmd, true, &ServeDeps{
			AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
				return &memAccountDB{Store: memstore.New()}, nil
			},
			MigratorFactory: func(url string) (SchemaMigrator, error) {
				assert.Equal(t, "postgres://db/x", url)
				return fake, nil
			},
			APIServerFactory: func(string, http.Handler) APIServer { return api },
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stop here")
		assert.Equal(t, []string{"up", "close"}, fake.calls)
	})

	t.Run("migration failure aborts", func(t *testing.T) {
		cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "")
		db := &memAccountDB{Store: memstore.New()}

		err := runServeWithDeps(context.Background(), cmd, true, &ServeDeps{
			AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
				return db, nil
			},
			MigratorFactory: func(string) (SchemaMigrator, error) {
				return &fakeMigrator{upErr: oops.Code("MIGRATION_UP_FAILED").Errorf("dirty")}, nil
			},
		})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
		assert.True(t, db.closed.Load())
	})
}

func TestServe_APIStartFailureStopsObservability(t *testing.T) {
	cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "127.0.0.1:0")
	obs := &stubServer{}
	api := &stubServer{startErr: oops.Code("SERVER_LISTEN_FAILED").Errorf("address in use")}

	err := runServeWithDeps(context.Background(), cmd, false, &ServeDeps{
		AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
			return &memAccountDB{Store: memstore.New()}, nil
		},
		ObservabilityServerFactory: func(string, observability.ReadinessChecker) ObservabilityServer { return obs },
		APIServerFactory:           func(string, http.Handler) APIServer { return api },
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SERVER_LISTEN_FAILED")
	assert.True(t, obs.stopped.Load(), "observability server stopped during cleanup")
}

func TestServe_ServerFailureTriggersShutdown(t *testing.T) {
	cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "")
	failing := &failingServer{errCh: make(chan error, 1)}
	failing.errCh <- fmt.Errorf("listener died")

	done := make(chan error, 1)
	go func() {
		done <- runServeWithDeps(context.Background(), cmd, false, &ServeDeps{
			AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
				return &memAccountDB{Store: memstore.New()}, nil
			},
			APIServerFactory: func(string, http.Handler) APIServer { return failing },
		})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SERVER_FAILED")
		errutil.AssertErrorContext(t, err, "server", "api")
		assert.Contains(t, err.Error(), "listener died")
		assert.True(t, failing.stopped.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down after server failure")
	}
}

func TestServe_LogsEffectiveSessionTTL(t *testing.T) {
	cmd := newTestServeCmd(t, "--database-url", "postgres://db/x", "--metrics-addr", "",
		"--log-format", "text", "--session-ttl", "5m")
	var stderr strings.Builder
	cmd.SetErr(&stderr)

	// A cancelled parent shuts down cleanly without a server failure.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runServeWithDeps(ctx, cmd, false, &ServeDeps{
		AccountDBFactory: func(context.Context, config.DatabaseConfig) (AccountDB, error) {
			return &memAccountDB{Store: memstore.New()}, nil
		},
		APIServerFactory: func(string, http.Handler) APIServer { return &stubServer{} },
	})
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "session_ttl=5m0s")
}

type failingServer struct {
	stubServer
	errCh chan error
}

func (s *failingServer) Start() (<-chan error, error) { return s.errCh, nil }

func TestMonitorServerErrors(t *testing.T) {
	t.Run("error cancels with cause", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		errCh := make(chan error, 1)
		errCh <- fmt.Errorf("test server error")

		monitorServerErrors(ctx, cancel, errCh, "test-server")
		require.Error(t, ctx.Err())
		cause := context.Cause(ctx)
		errutil.AssertErrorCode(t, cause, "SERVER_FAILED")
		errutil.AssertErrorContext(t, cause, "server", "test-server")
	})

	t.Run("nil error does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		errCh := make(chan error, 1)
		errCh <- nil

		monitorServerErrors(ctx, cancel, errCh, "test-server")
		assert.NoError(t, ctx.Err())
	})

	t.Run("closed channel does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		errCh := make(chan error)
		close(errCh)

		monitorServerErrors(ctx, cancel, errCh, "test-server")
		assert.NoError(t, ctx.Err())
	})

	t.Run("returns when context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(nil)
		monitorServerErrors(ctx, cancel, make(chan error), "test-server")
	})
}
