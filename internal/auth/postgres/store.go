// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth.AccountStore on PostgreSQL through pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// dbtx is the statement surface shared by pools and transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// poolIface is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	dbtx
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements auth.AccountStore.
type Store struct {
	*queries
	pool poolIface
}

var (
	_ auth.AccountStore   = (*Store)(nil)
	_ auth.AccountQueries = (*queries)(nil)
)

// NewStore creates a Store over pool.
func NewStore(pool poolIface) *Store {
	return &Store{
		queries: &queries{db: pool},
		pool:    pool,
	}
}

// WithinTx begins a transaction and hands fn a view of the store bound to it.
// If fn returns nil, the transaction is committed. Otherwise it is rolled back.
func (s *Store) WithinTx(ctx context.Context, fn func(q auth.AccountQueries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeError(err, "begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError(err, "commit transaction")
	}
	return nil
}

// queries runs every statement against db, which is either the pool or a
// transaction.
type queries struct {
	db dbtx
}

func notFound(code string) error {
	return oops.Code(code).Wrap(auth.ErrNotFound)
}
