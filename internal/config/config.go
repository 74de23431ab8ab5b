// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads sessiond settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/sessiond/internal/auth"
)

// Config is the complete sessiond configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Cookie   CookieConfig   `koanf:"cookie"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" env:"SESSIOND_HTTP_ADDR"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" env:"SESSIOND_METRICS_ADDR"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url" env:"DATABASE_URL"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" env:"SESSIOND_DATABASE_CONNECT_TIMEOUT"`
}

// AuthConfig configures the credential service.
type AuthConfig struct {
	Hasher                 string        `koanf:"hasher" env:"SESSIOND_AUTH_HASHER"`
	SessionTTL             time.Duration `koanf:"session_ttl" env:"SESSIOND_AUTH_SESSION_TTL"`
	TokenBytes             int           `koanf:"token_bytes" env:"SESSIOND_AUTH_TOKEN_BYTES"`
	VerifyBeforeInvalidate bool          `koanf:"verify_before_invalidate" env:"SESSIOND_AUTH_VERIFY_BEFORE_INVALIDATE"`
}

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name     string `koanf:"name" env:"SESSIOND_COOKIE_NAME"`
	Secure   bool   `koanf:"secure" env:"SESSIOND_COOKIE_SECURE"`
	Domain   string `koanf:"domain" env:"SESSIOND_COOKIE_DOMAIN"`
	SameSite string `koanf:"same_site" env:"SESSIOND_COOKIE_SAME_SITE"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" env:"SESSIOND_LOG_FORMAT"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":                     ":8080",
		"metrics.addr":                  "127.0.0.1:9100",
		"database.url":                  "",
		"database.connect_timeout":      "30s",
		"auth.hasher":                   auth.HasherHMAC,
		"auth.session_ttl":              auth.DefaultSessionTTL.String(),
		"auth.token_bytes":              auth.MinTokenBytes,
		"auth.verify_before_invalidate": false,
		"cookie.name":                   "authorization",
		"cookie.secure":                 false,
		"cookie.domain":                 "",
		"cookie.same_site":              "lax",
		"log.format":                    "json",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"database-url": "database.url",
	"hasher":       "auth.hasher",
	"session-ttl":  "auth.session_ttl",
	"log-format":   "log.format",
}

// RegisterFlags adds the flags Load understands to fs. Only flags the user
// actually sets override lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", ":8080", "API listen address")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics/health listen address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.String("hasher", auth.HasherHMAC, "password hasher (hmac or argon2id)")
	fs.Duration("session-ttl", auth.DefaultSessionTTL, "lifetime of issued sessions")
	fs.String("log-format", "json", "log format (json or text)")
}

// Load builds the configuration. path may be empty and flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "defaults").Wrap(err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "file").With("path", path).Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "decode").Wrap(err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "environment").Wrap(err)
	}

	if flags != nil {
		if err := applyFlags(&cfg, flags); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) error {
	k := koanf.New(".")
	provider := posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if err := validateAddr("http.addr", c.HTTP.Addr, true); err != nil {
		return err
	}
	if err := validateAddr("metrics.addr", c.Metrics.Addr, false); err != nil {
		return err
	}
	if c.Metrics.Addr != "" && addrsCollide(c.Metrics.Addr, c.HTTP.Addr) {
		return invalid("metrics.addr", "must not share a port with http.addr (%s)", c.HTTP.Addr)
	}
	if c.Database.ConnectTimeout <= 0 {
		return invalid("database.connect_timeout", "must be positive")
	}
	if _, err := auth.NewHasher(c.Auth.Hasher); err != nil {
		return invalid("auth.hasher", "must be %q or %q, got %q", auth.HasherHMAC, auth.HasherArgon2id, c.Auth.Hasher)
	}
	if c.Auth.SessionTTL <= 0 {
		return invalid("auth.session_ttl", "must be positive")
	}
	if c.Auth.TokenBytes < auth.MinTokenBytes {
		return invalid("auth.token_bytes", "must be at least %d", auth.MinTokenBytes)
	}
	if c.Cookie.Name == "" {
		return invalid("cookie.name", "is required")
	}
	if _, ok := sameSiteModes[strings.ToLower(c.Cookie.SameSite)]; !ok {
		return invalid("cookie.same_site", "must be lax, strict or none, got %q", c.Cookie.SameSite)
	}
	if strings.EqualFold(c.Cookie.SameSite, "none") && !c.Cookie.Secure {
		return invalid("cookie.same_site", "none requires cookie.secure")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

var sameSiteModes = map[string]http.SameSite{
	"lax":    http.SameSiteLaxMode,
	"strict": http.SameSiteStrictMode,
	"none":   http.SameSiteNoneMode,
}

// SameSiteMode returns the configured SameSite attribute.
func (c CookieConfig) SameSiteMode() http.SameSite {
	if mode, ok := sameSiteModes[strings.ToLower(c.SameSite)]; ok {
		return mode
	}
	return http.SameSiteLaxMode
}

func validateAddr(key, addr string, required bool) error {
	if addr == "" {
		if required {
			return invalid(key, "is required")
		}
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return invalid(key, "must be host:port, got %q", addr)
	}
	return nil
}

// addrsCollide reports whether two listen addresses would bind the same
// port. Port 0 never collides, and a wildcard host overlaps every host.
func addrsCollide(a, b string) bool {
	hostA, portA, errA := net.SplitHostPort(a)
	hostB, portB, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil {
		return a == b
	}
	if portA != portB || portA == "0" {
		return false
	}
	return hostA == hostB || isWildcardHost(hostA) || isWildcardHost(hostB)
}

func isWildcardHost(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(key+" "+format, args...)
}
