// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"log/slog"
	"maps"
	"net/http"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

// Rule says how one error kind is presented to a client.
type Rule struct {
	Status int
	// Code is the machine-readable error code in the response body.
	Code string
	// Message is sent to the client. When empty the error's own text is
	// sent, so only set it empty for kinds whose text is safe to expose.
	Message string
	// Log records the full error server-side before responding.
	Log bool
}

// Classifier maps error kinds to responses. It is the only place in the
// service where a domain error becomes an HTTP status.
type Classifier struct {
	rules  map[auth.Kind]Rule
	logger *slog.Logger
}

// NewClassifier returns the default table, logging to logger.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	internal := Rule{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal server error",
		Log:     true,
	}
	return &Classifier{
		logger: logger,
		rules: map[auth.Kind]Rule{
			auth.KindDuplicateEntry: {
				Status:  http.StatusConflict,
				Code:    "duplicate_entry",
				Message: "account name already taken",
			},
			auth.KindInvalidCredentials: {
				Status:  http.StatusUnauthorized,
				Code:    "invalid_credentials",
				Message: "invalid credentials",
			},
			auth.KindBadRequest: {
				Status: http.StatusBadRequest,
				Code:   "bad_request",
			},
			auth.KindStoreUnavailable: internal,
			auth.KindUnknown:          internal,
		},
	}
}

// With returns a copy of c with kind mapped to rule.
func (c *Classifier) With(kind auth.Kind, rule Rule) *Classifier {
	rules := maps.Clone(c.rules)
	rules[kind] = rule
	return &Classifier{rules: rules, logger: c.logger}
}

// Rule returns the rule for err. Kinds missing from the table fall back to
// the KindUnknown rule.
func (c *Classifier) Rule(err error) Rule {
	if rule, ok := c.rules[auth.KindOf(err)]; ok {
		return rule
	}
	return c.rules[auth.KindUnknown]
}

// Respond writes err as a JSON error response and returns the rule used.
func (c *Classifier) Respond(w http.ResponseWriter, r *http.Request, err error) Rule {
	rule := c.Rule(err)
	if rule.Log {
		errutil.LogErrorContext(r.Context(), c.logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rule.Status)
	}

	msg := rule.Message
	if msg == "" {
		msg = err.Error()
	}
	writeError(w, rule.Status, rule.Code, msg)
	return rule
}
