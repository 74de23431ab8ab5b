// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// dummySalt is hashed against when a username does not exist so that
// unknown users cost the same hashing work as wrong passwords.
const dummySalt = "00000000000000000000000000000000"

// Service registers accounts and issues, validates and revokes sessions.
// It keeps no state of its own; everything lives in the AccountStore.
type Service struct {
	store       AccountStore
	hasher      Hasher
	tokens      TokenIssuer
	ttl         time.Duration
	verifyFirst bool
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets the lifetime of issued sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for login diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVerifyBeforeInvalidate makes Login check the password before it
// removes the fingerprint's prior session. By default the prior session is
// removed first, so a failed attempt on a device also signs that device out.
func WithVerifyBeforeInvalidate(enabled bool) Option {
	return func(s *Service) {
		s.verifyFirst = enabled
	}
}

// NewService creates a Service.
func NewService(store AccountStore, hasher Hasher, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, oops.Code("AUTH_MISSING_DEPENDENCY").Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_MISSING_DEPENDENCY").Errorf("hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_MISSING_DEPENDENCY").Errorf("token issuer is required")
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		ttl:    DefaultSessionTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SessionTTL returns the lifetime given to new sessions.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Register creates an account and its first session on fingerprint.
// A username already taken, in any letter case, fails with KindDuplicateEntry.
func (s *Service) Register(ctx context.Context, username, password, fingerprint string) (*Credentials, error) {
	if fingerprint == "" {
		return nil, errInvalidCredentials()
	}
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, BadRequest("account name and password are required")
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "generate salt").Wrap(err)
	}
	digest, err := s.hasher.Hash(password, salt)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}
	token, err := s.tokens.GenerateToken()
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "generate token").Wrap(err)
	}

	var creds *Credentials
	err = s.store.WithinTx(ctx, func(q AccountQueries) error {
		accountID, err := q.InsertAccount(ctx, username, digest, salt)
		if err != nil {
			return oops.With("operation", "insert account").With("username", username).Wrap(err)
		}
		expiry, err := q.InsertSession(ctx, accountID, fingerprint, token, s.ttl)
		if err != nil {
			return oops.With("operation", "insert session").With("account_id", accountID).Wrap(err)
		}
		creds = &Credentials{AccountID: accountID, Token: token, Expiry: expiry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// Login authenticates username and password and issues a new session for
// fingerprint. Unknown usernames and wrong passwords fail with the same
// KindInvalidCredentials error.
//
// Unless WithVerifyBeforeInvalidate is set, the prior session on fingerprint
// is removed before the password is checked, and that removal is kept even
// when the password turns out to be wrong.
func (s *Service) Login(ctx context.Context, username, password, fingerprint string) (*Credentials, error) {
	if fingerprint == "" {
		return nil, errInvalidCredentials()
	}
	username = NormalizeUsername(username)

	token, err := s.tokens.GenerateToken()
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "generate token").Wrap(err)
	}

	var (
		creds       *Credentials
		rejected    bool
		accountID   string
		invalidated int64
	)
	err = s.store.WithinTx(ctx, func(q AccountQueries) error {
		account, err := q.FindAccountByUsername(ctx, username)
		if errors.Is(err, ErrNotFound) {
			// Burn the same hashing work as a real check.
			_, _ = s.hasher.Hash(password, dummySalt) //nolint:errcheck // timing only
			return errInvalidCredentials()
		}
		if err != nil {
			return oops.With("operation", "find account").Wrap(err)
		}
		accountID = account.ID

		if s.verifyFirst {
			ok, err := s.passwordMatches(account, password)
			if err != nil {
				return err
			}
			if !ok {
				return errInvalidCredentials()
			}
		}

		invalidated, err = q.DeleteSessions(ctx, account.ID, fingerprint)
		if err != nil {
			return oops.With("operation", "delete sessions").With("account_id", account.ID).Wrap(err)
		}

		if !s.verifyFirst {
			ok, err := s.passwordMatches(account, password)
			if err != nil {
				return err
			}
			if !ok {
				// Commit so the removal above sticks.
				rejected = true
				return nil
			}
		}

		expiry, err := q.InsertSession(ctx, account.ID, fingerprint, token, s.ttl)
		if err != nil {
			return oops.With("operation", "insert session").With("account_id", account.ID).Wrap(err)
		}
		creds = &Credentials{AccountID: account.ID, Token: token, Expiry: expiry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rejected {
		if invalidated > 0 {
			s.logger.InfoContext(ctx, "failed login invalidated prior session",
				"account_id", accountID,
				"sessions", invalidated)
		}
		return nil, errInvalidCredentials()
	}
	return creds, nil
}

func (s *Service) passwordMatches(account *Account, password string) (bool, error) {
	digest, err := s.hasher.Hash(password, account.Salt)
	if err != nil {
		return false, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "hash password").
			With("account_id", account.ID).
			Wrap(err)
	}
	return DigestsEqual(digest, account.HashedPassword), nil
}

// Logout removes the session matching all three values. It succeeds whether
// or not such a session exists; only store failures are reported.
func (s *Service) Logout(ctx context.Context, accountID, token, fingerprint string) error {
	n, err := s.store.DeleteSession(ctx, accountID, token, fingerprint)
	if err != nil {
		return oops.With("operation", "delete session").With("account_id", accountID).Wrap(err)
	}
	s.logger.DebugContext(ctx, "logout", "account_id", accountID, "sessions", n)
	return nil
}

// Validate returns the unexpired session for (fingerprint, token).
// Missing values, unknown tokens and expired sessions all fail with
// KindInvalidCredentials.
func (s *Service) Validate(ctx context.Context, fingerprint, token string) (*Session, error) {
	if fingerprint == "" || token == "" {
		return nil, errInvalidCredentials()
	}

	session, err := s.store.FindActiveSession(ctx, fingerprint, token)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidCredentials()
	}
	if err != nil {
		return nil, oops.With("operation", "find active session").Wrap(err)
	}
	return session, nil
}
