// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements the account credential and session lifecycle.
//
// # Domain Types
//
//   - Account - a registered username with its salted password digest
//   - Session - a bearer token bound to one (account, fingerprint) pair
//   - Credentials - what Register and Login hand back to the caller
//
// # Collaborators
//
// The Service depends on three interfaces so that each can be swapped:
//   - Hasher - salt generation and password digests (HMACHasher, Argon2idHasher)
//   - TokenIssuer - opaque bearer tokens (RandomTokenIssuer)
//   - AccountStore - transactional persistence (see the postgres subpackage)
//
// # Errors
//
// Every error that reaches a caller classifies into one Kind via KindOf.
// Mapping kinds to transport statuses is left to the caller.
package auth
