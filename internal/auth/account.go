// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"
)

// Account is a registered user.
type Account struct {
	ID             string
	Username       string
	HashedPassword string
	Salt           string
}

// NormalizeUsername lowercases a username. Uniqueness is enforced on the
// normalized form, so "Alice" and "alice" are the same account.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

// AccountQueries are the statements the Service runs against storage.
// Implementations classify failures: a username collision is
// KindDuplicateEntry and a lost connection is KindStoreUnavailable.
type AccountQueries interface {
	// InsertAccount creates an account and returns its server-generated ID.
	InsertAccount(ctx context.Context, username, hashedPassword, salt string) (string, error)

	// FindAccountByUsername returns ErrNotFound when no account matches.
	FindAccountByUsername(ctx context.Context, username string) (*Account, error)

	// DeleteSessions removes every session of the account on fingerprint.
	// Matching zero rows is not an error.
	DeleteSessions(ctx context.Context, accountID, fingerprint string) (int64, error)

	// InsertSession stores token for (accountID, fingerprint), replacing any
	// existing session for that pair, and returns the expiry.
	InsertSession(ctx context.Context, accountID, fingerprint, token string, ttl time.Duration) (time.Time, error)

	// DeleteSession removes the session matching all three values.
	// Matching zero rows is not an error.
	DeleteSession(ctx context.Context, accountID, token, fingerprint string) (int64, error)

	// FindActiveSession returns the unexpired session for (fingerprint, token),
	// or ErrNotFound.
	FindActiveSession(ctx context.Context, fingerprint, token string) (*Session, error)
}

// AccountStore is AccountQueries plus transactions.
type AccountStore interface {
	AccountQueries

	// WithinTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(q AccountQueries) error) error
}
