// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/sessiond/internal/auth"
)

func TestRandomTokenIssuer_GenerateToken(t *testing.T) {
	issuer := auth.NewRandomTokenIssuer(auth.MinTokenBytes)

	token, err := issuer.GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 256)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, auth.MinTokenBytes)
}

func TestRandomTokenIssuer_Unique(t *testing.T) {
	issuer := auth.NewRandomTokenIssuer(auth.MinTokenBytes)

	seen := make(map[string]struct{}, 100)
	for range 100 {
		token, err := issuer.GenerateToken()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "token issued twice")
		seen[token] = struct{}{}
	}
}

func TestNewRandomTokenIssuer_Size(t *testing.T) {
	t.Run("raises small sizes to the minimum", func(t *testing.T) {
		token, err := auth.NewRandomTokenIssuer(16).GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 256)
	})

	t.Run("honours larger sizes", func(t *testing.T) {
		token, err := auth.NewRandomTokenIssuer(255).GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, base64.StdEncoding.EncodedLen(255))
	})
}
