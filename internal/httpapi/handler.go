// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi serves the account API over HTTP: registration, login,
// logout and session lookup, with the token carried in a cookie.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
)

// StatusNotYetSupported is returned by account operations that exist in the
// API but are not implemented.
const StatusNotYetSupported = 430

const notYetSupportedBody = "Operation Not Yet Supported"

// CredentialService is the account logic the handler drives. *auth.Service
// satisfies it.
type CredentialService interface {
	Register(ctx context.Context, username, password, fingerprint string) (*auth.Credentials, error)
	Login(ctx context.Context, username, password, fingerprint string) (*auth.Credentials, error)
	Logout(ctx context.Context, accountID, token, fingerprint string) error
	Validate(ctx context.Context, fingerprint, token string) (*auth.Session, error)
}

// Recorder receives request and credential metrics.
// *observability.Metrics satisfies it.
type Recorder interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
	RecordAuth(operation, result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, int, time.Duration) {}
func (nopRecorder) RecordAuth(string, string)                 {}

// Handler routes the account API.
type Handler struct {
	svc        CredentialService
	cookie     CookieOptions
	classifier *Classifier
	logger     *slog.Logger
	metrics    Recorder
	root       http.Handler
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCookie sets the session cookie attributes.
func WithCookie(opts CookieOptions) HandlerOption {
	return func(h *Handler) {
		h.cookie = opts
	}
}

// WithLogger sets the logger for request lines and classified errors.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec Recorder) HandlerOption {
	return func(h *Handler) {
		if rec != nil {
			h.metrics = rec
		}
	}
}

// WithClassifier replaces the default error table.
func WithClassifier(c *Classifier) HandlerOption {
	return func(h *Handler) {
		h.classifier = c
	}
}

// NewHandler builds the API mux over svc.
func NewHandler(svc CredentialService, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:     svc,
		logger:  slog.Default(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.cookie = h.cookie.withDefaults()
	if h.classifier == nil {
		h.classifier = NewClassifier(h.logger)
	}

	mux := http.NewServeMux()
	h.route(mux, "POST /account", http.HandlerFunc(h.handleRegister))
	h.route(mux, "POST /account/login", http.HandlerFunc(h.handleLogin))
	h.route(mux, "POST /account/logout", h.requireSession(http.HandlerFunc(h.handleLogout)))
	h.route(mux, "GET /account", h.requireSession(http.HandlerFunc(h.handleWhoAmI)))
	h.route(mux, "PUT /account", http.HandlerFunc(handleNotYetSupported))
	h.route(mux, "DELETE /account", http.HandlerFunc(handleNotYetSupported))

	h.root = withRequestID(withTracing(withRequestLogging(h.logger, mux)))
	return h
}

func (h *Handler) route(mux *http.ServeMux, pattern string, next http.Handler) {
	mux.Handle(pattern, h.instrument(pattern, h.requireFingerprint(next)))
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// result is the metrics label for the outcome of a credential call.
func (h *Handler) result(err error) string {
	if err == nil {
		return "ok"
	}
	return h.classifier.Rule(err).Code
}

type credentialsRequest struct {
	AccountName string `json:"account_name"`
	Password    string `json:"password"`
}

type accountIDResponse struct {
	ID string `json:"id"`
}

type whoAmIResponse struct {
	Account string `json:"account"`
	Token   string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, "register", h.svc.Register)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, "login", h.svc.Login)
}

type issueFunc func(ctx context.Context, username, password, fingerprint string) (*auth.Credentials, error)

// issue runs a credential call that ends in a new session cookie.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, operation string, call issueFunc) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.RecordAuth(operation, h.result(err))
		h.classifier.Respond(w, r, err)
		return
	}
	if req.AccountName == "" || req.Password == "" {
		err := auth.BadRequest("account_name and password are required")
		h.metrics.RecordAuth(operation, h.result(err))
		h.classifier.Respond(w, r, err)
		return
	}

	ctx := r.Context()
	creds, err := call(ctx, req.AccountName, req.Password, FingerprintFromContext(ctx))
	h.metrics.RecordAuth(operation, h.result(err))
	if err != nil {
		h.classifier.Respond(w, r, err)
		return
	}

	h.cookie.set(w, creds.Token, creds.Expiry)
	writeJSON(w, http.StatusOK, accountIDResponse{ID: creds.AccountID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		h.classifier.Respond(w, r, errNoSession())
		return
	}

	err := h.svc.Logout(ctx, session.AccountID, session.Token, session.Fingerprint)
	h.metrics.RecordAuth("logout", h.result(err))
	if err != nil {
		h.classifier.Respond(w, r, err)
		return
	}

	h.cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.classifier.Respond(w, r, errNoSession())
		return
	}
	writeJSON(w, http.StatusOK, whoAmIResponse{Account: session.AccountID, Token: session.Token})
}

func handleNotYetSupported(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(StatusNotYetSupported)
	//nolint:errcheck // client may disconnect
	w.Write([]byte(notYetSupportedBody))
}

// errNoSession means a session route was mounted without requireSession.
func errNoSession() error {
	return oops.Code("SESSION_MISSING").Errorf("no session in request context")
}

func errMissingFingerprint() error {
	return auth.BadRequest("%s header is required", FingerprintHeader)
}
