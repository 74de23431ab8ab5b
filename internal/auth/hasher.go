// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// SaltBytes is the amount of randomness in every generated salt.
const SaltBytes = 16

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2KeyLen  = 32        // output length in bytes
)

// Hasher names accepted by NewHasher.
const (
	HasherHMAC     = "hmac"
	HasherArgon2id = "argon2id"
)

// Hasher derives password digests from a password and a per-account salt.
type Hasher interface {
	// NewSalt returns a fresh printable salt.
	NewSalt() (string, error)

	// Hash returns the printable digest of password under salt.
	// The same inputs always produce the same digest.
	Hash(password, salt string) (string, error)
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case HasherHMAC, "":
		return NewHMACHasher(), nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, oops.Code("AUTH_UNKNOWN_HASHER").With("hasher", name).Errorf("unknown hasher %q", name)
	}
}

// HMACHasher keys HMAC-SHA256 with the salt and feeds it the password.
type HMACHasher struct{}

// NewHMACHasher creates a new HMACHasher.
func NewHMACHasher() *HMACHasher {
	return &HMACHasher{}
}

// NewSalt returns SaltBytes random bytes, hex encoded.
func (h *HMACHasher) NewSalt() (string, error) {
	return newHexSalt()
}

// Hash returns hex(HMAC-SHA256(key=salt, msg=password)).
func (h *HMACHasher) Hash(password, salt string) (string, error) {
	mac := hmac.New(sha256.New, []byte(salt))
	// hash.Hash.Write never returns an error.
	_, _ = mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Argon2idHasher derives digests with argon2id. Digests are not compatible
// with HMACHasher digests, so a database must stick to one hasher.
type Argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2idHasher creates an Argon2idHasher with OWASP parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{
		time:    argon2Time,
		memory:  argon2Memory,
		threads: argon2Threads,
	}
}

// NewSalt returns SaltBytes random bytes, hex encoded.
func (h *Argon2idHasher) NewSalt() (string, error) {
	return newHexSalt()
}

// Hash returns hex(argon2id(password, salt)).
func (h *Argon2idHasher) Hash(password, salt string) (string, error) {
	if salt == "" {
		return "", oops.Code("AUTH_EMPTY_SALT").Errorf("salt cannot be empty")
	}
	key := argon2.IDKey([]byte(password), []byte(salt), h.time, h.memory, h.threads, argon2KeyLen)
	return hex.EncodeToString(key), nil
}

// DigestsEqual compares two digests in constant time.
func DigestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newHexSalt() (string, error) {
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return hex.EncodeToString(salt), nil
}
