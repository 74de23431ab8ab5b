// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/samber/oops"
)

// MinTokenBytes is the least randomness a session token may carry.
// 192 bytes encode to 256 base64 characters.
const MinTokenBytes = 192

// TokenIssuer produces opaque bearer tokens.
type TokenIssuer interface {
	GenerateToken() (string, error)
}

// RandomTokenIssuer draws tokens from crypto/rand.
type RandomTokenIssuer struct {
	size int
}

// NewRandomTokenIssuer creates an issuer emitting size random bytes per token.
// Sizes below MinTokenBytes are raised to MinTokenBytes.
func NewRandomTokenIssuer(size int) *RandomTokenIssuer {
	if size < MinTokenBytes {
		size = MinTokenBytes
	}
	return &RandomTokenIssuer{size: size}
}

// GenerateToken returns a standard base64 encoding of fresh random bytes.
func (i *RandomTokenIssuer) GenerateToken() (string, error) {
	buf := make([]byte, i.size)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("AUTH_TOKEN_FAILED").With("size", i.size).Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
