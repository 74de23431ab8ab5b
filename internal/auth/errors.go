// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned by stores when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Kind is the closed set of error classes that leave the auth core.
// The transport boundary decides what each kind means to a client.
type Kind uint8

// Error kinds. KindUnknown is the zero value so unclassified errors fall into it.
const (
	KindUnknown Kind = iota
	KindDuplicateEntry
	KindInvalidCredentials
	KindStoreUnavailable
	KindBadRequest
)

// oops codes carried by errors of each kind.
const (
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeBadRequest         = "BAD_REQUEST"
)

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindUnknown,
		KindDuplicateEntry,
		KindInvalidCredentials,
		KindStoreUnavailable,
		KindBadRequest,
	}
}

// Code returns the oops code used for errors of this kind.
func (k Kind) Code() string {
	switch k {
	case KindDuplicateEntry:
		return CodeDuplicateEntry
	case KindInvalidCredentials:
		return CodeInvalidCredentials
	case KindStoreUnavailable:
		return CodeStoreUnavailable
	case KindBadRequest:
		return CodeBadRequest
	case KindUnknown:
		return CodeUnknown
	}
	return CodeUnknown
}

func (k Kind) String() string {
	switch k {
	case KindDuplicateEntry:
		return "DuplicateEntry"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindBadRequest:
		return "BadRequest"
	case KindUnknown:
		return "UnknownError"
	}
	return "UnknownError"
}

// KindOf classifies err by the code of its innermost oops error.
// Errors without a recognised code are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindUnknown
	}
	switch oopsErr.Code() {
	case CodeDuplicateEntry:
		return KindDuplicateEntry
	case CodeInvalidCredentials:
		return KindInvalidCredentials
	case CodeStoreUnavailable:
		return KindStoreUnavailable
	case CodeBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// errInvalidCredentials is the single error returned for every failed
// authentication, whatever the cause.
func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid credentials")
}

// BadRequest builds a KindBadRequest error for malformed client input.
func BadRequest(format string, args ...any) error {
	return oops.Code(CodeBadRequest).Errorf(format, args...)
}
