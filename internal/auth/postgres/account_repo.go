// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// InsertAccount stores a new account under a freshly generated UUID.
func (q *queries) InsertAccount(ctx context.Context, username, hashedPassword, salt string) (string, error) {
	id := uuid.NewString()
	_, err := q.db.Exec(ctx, `
		INSERT INTO accounts (id, username, hashed_password, salt)
		VALUES ($1, $2, $3, $4)
	`, id, username, hashedPassword, salt)
	if err != nil {
		return "", oops.With("username", username).Wrap(storeError(err, "insert account"))
	}
	return id, nil
}

// FindAccountByUsername retrieves an account by its normalized username.
func (q *queries) FindAccountByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id::text, username, hashed_password, salt
		FROM accounts
		WHERE username = $1
	`, username)

	var account auth.Account
	err := row.Scan(&account.ID, &account.Username, &account.HashedPassword, &account.Salt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("ACCOUNT_NOT_FOUND")
	}
	if err != nil {
		return nil, oops.With("username", username).Wrap(storeError(err, "find account by username"))
	}
	return &account, nil
}
