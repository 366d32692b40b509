package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"campus/cmd/identity"
	"campus/cmd/internal/auth/session"
	"campus/cmd/security/password"
)

// Handler wires HTTP account endpoints to the identity store and session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	sessions *session.Service
	hasher   session.Hasher

	emailSender EmailSender
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithEmailSender overrides the default log-only email sender.
func WithEmailSender(sender EmailSender) HandlerOption {
	return func(h *Handler) {
		if h == nil || sender == nil {
			return
		}
		h.emailSender = sender
	}
}

// NewHandler constructs an account Handler.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, sessions *session.Service, hasher session.Hasher, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil || sessions == nil || hasher == nil {
		return nil, errors.New("api: missing dependency")
	}

	h := &Handler{
		log:         log,
		cfg:         cfg.withDefaults(),
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		emailSender: LogEmailSender{Log: log},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires account routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("GET /verify-email", h.handleVerifyEmail)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /request-password-reset", h.handleRequestPasswordReset)
	mux.HandleFunc("POST /reset-password", h.handleResetPassword)
	mux.HandleFunc("GET /confirm-email-change", h.handleConfirmEmailChange)

	mux.HandleFunc("POST /logout", h.authed(accessAuthenticated, h.handleLogout))
	mux.HandleFunc("GET /me", h.authed(accessVerified, h.handleMe))
	mux.HandleFunc("PATCH /update-user/{id}", h.authed(accessVerified, h.handleSelfUpdate))
	mux.HandleFunc("PUT /change-password", h.authed(accessVerified, h.handleChangePassword))
	mux.HandleFunc("DELETE /users/{id}", h.authed(accessVerified, h.handleDeleteUser))
	mux.HandleFunc("POST /request-email-change", h.authed(accessVerified, h.handleRequestEmailChange))

	mux.HandleFunc("GET /users", h.authed(accessAdmin, h.handleListUsers))
	mux.HandleFunc("PATCH /users/{id}", h.authed(accessAdmin, h.handleAdminUpdate))
}

type access int

const (
	accessAuthenticated access = iota
	accessVerified
	accessAdmin
)

type identityHandler func(w http.ResponseWriter, r *http.Request, id session.Identity)

// authed authenticates the bearer token and enforces level before calling next.
func (h *Handler) authed(level access, next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}

		id, err := h.sessions.Authenticate(r.Context(), raw)
		if err == nil && level >= accessVerified {
			err = h.sessions.RequireVerified(id)
		}
		if err == nil && level >= accessAdmin {
			err = h.sessions.RequireAdmin(id)
		}
		if err != nil {
			h.writeAuthError(w, "auth.authenticate", err)
			return
		}
		next(w, r, id)
	}
}

// ---- error mapping ----

func (h *Handler) writeAuthError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, session.ErrTokenRevoked):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "token_revoked", "token has been revoked")
	case session.IsTokenError(err):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
	case errors.Is(err, session.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "email_not_verified", "email verification required")
	case errors.Is(err, session.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "insufficient privileges")
	default:
		h.serverError(w, op, err)
	}
}

// writePurposeTokenError maps failures of mailed one-shot tokens. They are client errors
// rather than authentication failures.
func (h *Handler) writePurposeTokenError(w http.ResponseWriter, op string, err error) {
	if session.IsTokenError(err) {
		writeError(w, http.StatusBadRequest, "invalid_token", "invalid or expired token")
		return
	}
	h.serverError(w, op, err)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var ce identity.ConflictError
	var oe identity.OpError
	switch {
	case errors.As(err, &ce):
		msg := "conflict"
		if ce.Field != "" {
			msg = ce.Field + " already registered"
		}
		writeError(w, http.StatusConflict, "conflict", msg)
	case identity.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.As(err, &oe) && errors.Is(oe.Kind, identity.ErrInvalidInput):
		msg := oe.Msg
		if msg == "" {
			msg = "invalid request"
		}
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
	case identity.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	default:
		h.serverError(w, op, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+".fail", "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

// hashPassword applies the password policy and hashes plaintext. On failure the response
// has been written and ok is false.
func (h *Handler) hashPassword(w http.ResponseWriter, op, plaintext string) (hash string, ok bool) {
	hash, err := h.hasher.Hash(plaintext)
	if err != nil {
		if isPolicyError(err) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return "", false
		}
		h.serverError(w, op, err)
		return "", false
	}
	return hash, true
}

func isPolicyError(err error) bool {
	return errors.Is(err, password.ErrPasswordTooShort) ||
		errors.Is(err, password.ErrPasswordTooLong) ||
		errors.Is(err, password.ErrWeakPassword)
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
