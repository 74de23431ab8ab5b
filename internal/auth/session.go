// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"
)

// DefaultSessionTTL is how long a newly issued session stays valid.
const DefaultSessionTTL = time.Hour

// Session is an issued bearer token bound to an account and a fingerprint.
type Session struct {
	AccountID   string
	Fingerprint string
	Token       string
	Expiry      time.Time
}

// IsExpiredAt returns true if the session is expired at the given time.
// A session is valid only while expiry is strictly after now.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return !s.Expiry.After(now)
}

// Credentials are returned by Register and Login.
type Credentials struct {
	AccountID string
	Token     string
	Expiry    time.Time
}

type sessionContextKey struct{}

// WithSession returns a copy of ctx carrying the authenticated session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	return s, ok && s != nil
}
