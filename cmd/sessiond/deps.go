// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/auth/postgres"
	"github.com/holomush/sessiond/internal/config"
	"github.com/holomush/sessiond/internal/httpapi"
	"github.com/holomush/sessiond/internal/observability"
	"github.com/holomush/sessiond/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// AccountDBFactory opens the account database.
	// Default: store.Connect wrapped in postgres.NewStore
	AccountDBFactory func(ctx context.Context, cfg config.DatabaseConfig) (AccountDB, error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (SchemaMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the account API server.
	// Default: httpapi.NewServer
	APIServerFactory func(addr string, handler http.Handler) APIServer
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (SchemaMigrator, error)
}

// AccountDB is an account store with a live connection behind it.
type AccountDB interface {
	auth.AccountStore
	Ping(ctx context.Context) error
	Close()
}

// SchemaMigrator wraps the methods used from store.Migrator.
type SchemaMigrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer wraps the methods used from httpapi.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// pgAccountDB is the PostgreSQL AccountDB.
type pgAccountDB struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (db *pgAccountDB) Ping(ctx context.Context) error {
	//nolint:wrapcheck // readiness only needs success or failure
	return db.pool.Ping(ctx)
}

func (db *pgAccountDB) Close() {
	db.pool.Close()
}

func connectAccountDB(ctx context.Context, cfg config.DatabaseConfig) (AccountDB, error) {
	pool, err := store.Connect(ctx, cfg.URL, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	return &pgAccountDB{Store: postgres.NewStore(pool), pool: pool}, nil
}

func newSchemaMigrator(databaseURL string) (SchemaMigrator, error) {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.AccountDBFactory == nil {
		d.AccountDBFactory = connectAccountDB
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = newSchemaMigrator
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if d.APIServerFactory == nil {
		d.APIServerFactory = func(addr string, handler http.Handler) APIServer {
			return httpapi.NewServer(addr, handler)
		}
	}
	return d
}

func (d *MigrateDeps) withDefaults() *MigrateDeps {
	if d == nil {
		d = &MigrateDeps{}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = newSchemaMigrator
	}
	return d
}
