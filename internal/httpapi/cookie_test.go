// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookieOptions_Defaults(t *testing.T) {
	opts := CookieOptions{}.withDefaults()
	assert.Equal(t, DefaultCookieName, opts.Name)
	assert.Equal(t, http.SameSiteLaxMode, opts.SameSite)

	opts = CookieOptions{Name: "sid", SameSite: http.SameSiteNoneMode}.withDefaults()
	assert.Equal(t, "sid", opts.Name)
	assert.Equal(t, http.SameSiteNoneMode, opts.SameSite)
}

func TestCookieOptions_Token(t *testing.T) {
	opts := CookieOptions{}.withDefaults()

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie", "abc+/=", "", "abc+/="},
		{"cookie wins over header", "from-cookie", "Bearer from-header", "from-cookie"},
		{"bearer header", "", "Bearer from-header", "from-header"},
		{"other scheme", "", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "", "Bearer", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/account", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, opts.token(req))
		})
	}
}

func TestCookieOptions_SetAndClear(t *testing.T) {
	opts := CookieOptions{Domain: "example.com", Secure: true}.withDefaults()
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	rec := httptest.NewRecorder()
	opts.set(rec, "token+value/=", expiry)
	set := rec.Result().Cookies()
	if assert.Len(t, set, 1) {
		assert.Equal(t, "token+value/=", set[0].Value)
		assert.True(t, set[0].Expires.Equal(expiry))
		assert.True(t, set[0].HttpOnly)
		assert.True(t, set[0].Secure)
		assert.Equal(t, "example.com", set[0].Domain)
	}

	rec = httptest.NewRecorder()
	opts.clear(rec)
	cleared := rec.Result().Cookies()
	if assert.Len(t, cleared, 1) {
		assert.Empty(t, cleared[0].Value)
		assert.Equal(t, -1, cleared[0].MaxAge)
		assert.Equal(t, "/", cleared[0].Path)
	}
}
