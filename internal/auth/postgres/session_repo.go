// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// DeleteSessions removes every session of the account on fingerprint.
func (q *queries) DeleteSessions(ctx context.Context, accountID, fingerprint string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM authentication_tokens
		WHERE account_id = $1 AND fingerprint = $2
	`, accountID, fingerprint)
	if err != nil {
		return 0, oops.With("account_id", accountID).Wrap(storeError(err, "delete sessions"))
	}
	return tag.RowsAffected(), nil
}

// InsertSession stores a session expiring ttl from the database clock.
// An existing session for the same (account, fingerprint) is replaced, so
// concurrent logins on one device leave a single row.
func (q *queries) InsertSession(ctx context.Context, accountID, fingerprint, token string, ttl time.Duration) (time.Time, error) {
	var expiry time.Time
	err := q.db.QueryRow(ctx, `
		INSERT INTO authentication_tokens (account_id, fingerprint, token, expiry)
		VALUES ($1, $2, $3, now() + make_interval(secs => $4))
		ON CONFLICT (account_id, fingerprint)
		DO UPDATE SET token = EXCLUDED.token, expiry = EXCLUDED.expiry, created_at = now()
		RETURNING expiry
	`, accountID, fingerprint, token, ttl.Seconds()).Scan(&expiry)
	if err != nil {
		return time.Time{}, oops.With("account_id", accountID).Wrap(storeError(err, "insert session"))
	}
	return expiry, nil
}

// DeleteSession removes the session matching account, token and fingerprint.
func (q *queries) DeleteSession(ctx context.Context, accountID, token, fingerprint string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM authentication_tokens
		WHERE account_id = $1 AND token = $2 AND fingerprint = $3
	`, accountID, token, fingerprint)
	if err != nil {
		return 0, oops.With("account_id", accountID).Wrap(storeError(err, "delete session"))
	}
	return tag.RowsAffected(), nil
}

// FindActiveSession retrieves the unexpired session for (fingerprint, token).
func (q *queries) FindActiveSession(ctx context.Context, fingerprint, token string) (*auth.Session, error) {
	row := q.db.QueryRow(ctx, `
		SELECT account_id::text, fingerprint, token, expiry
		FROM authentication_tokens
		WHERE fingerprint = $1 AND token = $2 AND expiry > now()
	`, fingerprint, token)

	var session auth.Session
	err := row.Scan(&session.AccountID, &session.Fingerprint, &session.Token, &session.Expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("SESSION_NOT_FOUND")
	}
	if err != nil {
		return nil, storeError(err, "find active session")
	}
	return &session, nil
}
