// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/auth/memstore"
)

func TestStore_Accounts(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	id, err := s.InsertAccount(ctx, "bob", "digest", "salt")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	account, err := s.FindAccountByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &auth.Account{ID: id, Username: "bob", HashedPassword: "digest", Salt: "salt"}, account)

	_, err = s.InsertAccount(ctx, "bob", "x", "y")
	assert.Equal(t, auth.KindDuplicateEntry, auth.KindOf(err))

	_, err = s.FindAccountByUsername(ctx, "alice")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	expiry, err := s.InsertSession(ctx, "acc-1", "dev1", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiry)

	t.Run("same account and fingerprint replaces", func(t *testing.T) {
		_, err := s.InsertSession(ctx, "acc-1", "dev1", "tok-2", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, s.SessionCount())

		_, err = s.FindActiveSession(ctx, "dev1", "tok-1")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		_, err = s.FindActiveSession(ctx, "dev1", "tok-2")
		require.NoError(t, err)
	})

	t.Run("token reuse is a duplicate", func(t *testing.T) {
		_, err := s.InsertSession(ctx, "acc-2", "dev9", "tok-2", time.Hour)
		assert.Equal(t, auth.KindDuplicateEntry, auth.KindOf(err))
	})

	t.Run("delete session needs every value to match", func(t *testing.T) {
		n, err := s.DeleteSession(ctx, "acc-1", "tok-2", "other")
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.DeleteSession(ctx, "acc-1", "tok-2", "dev1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Zero(t, s.SessionCount())
	})

	t.Run("delete sessions by fingerprint", func(t *testing.T) {
		_, err := s.InsertSession(ctx, "acc-1", "dev1", "tok-3", time.Hour)
		require.NoError(t, err)

		n, err := s.DeleteSessions(ctx, "acc-1", "dev1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.DeleteSessions(ctx, "acc-1", "dev1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("expired sessions are not active", func(t *testing.T) {
		_, err := s.InsertSession(ctx, "acc-1", "dev1", "tok-4", time.Minute)
		require.NoError(t, err)

		now = now.Add(time.Minute)
		_, err = s.FindActiveSession(ctx, "dev1", "tok-4")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.Equal(t, 1, s.SessionCount(), "expired rows stay until replaced")
	})
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		s := memstore.New()
		err := s.WithinTx(ctx, func(q auth.AccountQueries) error {
			id, err := q.InsertAccount(ctx, "bob", "digest", "salt")
			if err != nil {
				return err
			}
			_, err = q.InsertSession(ctx, id, "dev1", "tok", time.Hour)
			return err
		})
		require.NoError(t, err)

		_, err = s.FindAccountByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, s.SessionCount())
	})

	t.Run("restores state on error", func(t *testing.T) {
		s := memstore.New()
		_, err := s.InsertSession(ctx, "acc-0", "dev0", "taken", time.Hour)
		require.NoError(t, err)

		err = s.WithinTx(ctx, func(q auth.AccountQueries) error {
			id, err := q.InsertAccount(ctx, "bob", "digest", "salt")
			if err != nil {
				return err
			}
			_, err = q.InsertSession(ctx, id, "dev1", "taken", time.Hour)
			return err
		})
		assert.Equal(t, auth.KindDuplicateEntry, auth.KindOf(err))

		_, err = s.FindAccountByUsername(ctx, "bob")
		assert.ErrorIs(t, err, auth.ErrNotFound, "account insert was rolled back")
		assert.Equal(t, 1, s.SessionCount())
	})
}
