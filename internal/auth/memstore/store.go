// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memstore provides an in-memory auth.AccountStore for testing.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// Store is an in-memory AccountStore. Transactions are serialized and
// rolled back by restoring a snapshot.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	accounts map[string]auth.Account // by username
	sessions map[string]auth.Session // by token
	paired   map[sessionKey]string   // (account, fingerprint) -> token
}

type sessionKey struct {
	accountID   string
	fingerprint string
}

var _ auth.AccountStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		now:      time.Now,
		accounts: make(map[string]auth.Account),
		sessions: make(map[string]auth.Session),
		paired:   make(map[sessionKey]string),
	}
}

// SetClock replaces the clock used for expiry decisions.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SessionCount returns the number of stored sessions, expired or not.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// WithinTx runs fn with exclusive access to the store.
func (s *Store) WithinTx(_ context.Context, fn func(q auth.AccountQueries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := maps.Clone(s.accounts)
	sessions := maps.Clone(s.sessions)
	paired := maps.Clone(s.paired)

	if err := fn(txQueries{s}); err != nil {
		s.accounts, s.sessions, s.paired = accounts, sessions, paired
		return err
	}
	return nil
}

// InsertAccount implements auth.AccountQueries.
func (s *Store) InsertAccount(ctx context.Context, username, hashedPassword, salt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAccount(ctx, username, hashedPassword, salt)
}

// FindAccountByUsername implements auth.AccountQueries.
func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findAccountByUsername(ctx, username)
}

// DeleteSessions implements auth.AccountQueries.
func (s *Store) DeleteSessions(ctx context.Context, accountID, fingerprint string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSessions(ctx, accountID, fingerprint)
}

// InsertSession implements auth.AccountQueries.
func (s *Store) InsertSession(ctx context.Context, accountID, fingerprint, token string, ttl time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertSession(ctx, accountID, fingerprint, token, ttl)
}

// DeleteSession implements auth.AccountQueries.
func (s *Store) DeleteSession(ctx context.Context, accountID, token, fingerprint string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSession(ctx, accountID, token, fingerprint)
}

// FindActiveSession implements auth.AccountQueries.
func (s *Store) FindActiveSession(ctx context.Context, fingerprint, token string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findActiveSession(ctx, fingerprint, token)
}

// The lowercase methods assume s.mu is held.

func (s *Store) insertAccount(_ context.Context, username, hashedPassword, salt string) (string, error) {
	if _, ok := s.accounts[username]; ok {
		return "", oops.Code(auth.CodeDuplicateEntry).
			With("username", username).
			Errorf("username already exists")
	}
	id := uuid.NewString()
	s.accounts[username] = auth.Account{
		ID:             id,
		Username:       username,
		HashedPassword: hashedPassword,
		Salt:           salt,
	}
	return id, nil
}

func (s *Store) findAccountByUsername(_ context.Context, username string) (*auth.Account, error) {
	account, ok := s.accounts[username]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return &account, nil
}

func (s *Store) deleteSessions(_ context.Context, accountID, fingerprint string) (int64, error) {
	key := sessionKey{accountID: accountID, fingerprint: fingerprint}
	token, ok := s.paired[key]
	if !ok {
		return 0, nil
	}
	delete(s.paired, key)
	delete(s.sessions, token)
	return 1, nil
}

func (s *Store) insertSession(_ context.Context, accountID, fingerprint, token string, ttl time.Duration) (time.Time, error) {
	if _, ok := s.sessions[token]; ok {
		return time.Time{}, oops.Code(auth.CodeDuplicateEntry).Errorf("token already exists")
	}
	key := sessionKey{accountID: accountID, fingerprint: fingerprint}
	if old, ok := s.paired[key]; ok {
		delete(s.sessions, old)
	}
	expiry := s.now().Add(ttl)
	s.sessions[token] = auth.Session{
		AccountID:   accountID,
		Fingerprint: fingerprint,
		Token:       token,
		Expiry:      expiry,
	}
	s.paired[key] = token
	return expiry, nil
}

func (s *Store) deleteSession(_ context.Context, accountID, token, fingerprint string) (int64, error) {
	session, ok := s.sessions[token]
	if !ok || session.AccountID != accountID || session.Fingerprint != fingerprint {
		return 0, nil
	}
	delete(s.sessions, token)
	delete(s.paired, sessionKey{accountID: accountID, fingerprint: fingerprint})
	return 1, nil
}

func (s *Store) findActiveSession(_ context.Context, fingerprint, token string) (*auth.Session, error) {
	session, ok := s.sessions[token]
	if !ok || session.Fingerprint != fingerprint || session.IsExpiredAt(s.now()) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// txQueries runs statements under the lock already held by WithinTx.
type txQueries struct {
	s *Store
}

func (q txQueries) InsertAccount(ctx context.Context, username, hashedPassword, salt string) (string, error) {
	return q.s.insertAccount(ctx, username, hashedPassword, salt)
}

func (q txQueries) FindAccountByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return q.s.findAccountByUsername(ctx, username)
}

func (q txQueries) DeleteSessions(ctx context.Context, accountID, fingerprint string) (int64, error) {
	return q.s.deleteSessions(ctx, accountID, fingerprint)
}

func (q txQueries) InsertSession(ctx context.Context, accountID, fingerprint, token string, ttl time.Duration) (time.Time, error) {
	return q.s.insertSession(ctx, accountID, fingerprint, token, ttl)
}

func (q txQueries) DeleteSession(ctx context.Context, accountID, token, fingerprint string) (int64, error) {
	return q.s.deleteSession(ctx, accountID, token, fingerprint)
}

func (q txQueries) FindActiveSession(ctx context.Context, fingerprint, token string) (*auth.Session, error) {
	return q.s.findActiveSession(ctx, fingerprint, token)
}
