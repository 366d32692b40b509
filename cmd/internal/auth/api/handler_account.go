package api

import (
	"errors"
	"net/http"
	"strings"

	"campus/cmd/identity"
	"campus/cmd/internal/auth/session"
	"campus/cmd/security/token"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}

	username := identity.NormalizeUsername(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}
	if !identity.ValidUsername(username) {
		writeError(w, http.StatusBadRequest, "invalid_request", "username is too long")
		return
	}
	if !identity.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid_request", "valid email is required")
		return
	}

	hash, ok := h.hashPassword(w, "auth.register.hash", req.Password)
	if !ok {
		return
	}

	ctx := r.Context()
	u, err := h.users.CreateUser(ctx, identity.CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         identity.RoleUser,
		Now:          h.sessions.Now(),
	})
	if err != nil {
		h.writeStoreError(w, "auth.register.create", err)
		return
	}
	h.log.Info("auth.register.ok", "user_id", u.ID)

	// The account exists at this point; delivery failures are logged only.
	if tok, err := h.sessions.IssueVerification(u.Email); err != nil {
		h.log.Error("auth.register.issue_verify.fail", "user_id", u.ID, "err", err)
	} else if msg, err := h.composeVerification(u.Email, u.Username, tok); err != nil {
		h.log.Error("auth.register.compose.fail", "user_id", u.ID, "err", err)
	} else if err := h.emailSender.Send(ctx, msg); err != nil {
		h.log.Error("auth.register.email.fail", "user_id", u.ID, "err", err)
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		userResponse: toUserResponse(u),
		Message:      "registration successful, check your email to verify your account",
	})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	email, err := h.sessions.ConsumeVerification(raw)
	if err != nil {
		h.writePurposeTokenError(w, "auth.verify_email", err)
		return
	}

	ctx := r.Context()
	u, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		h.writeStoreError(w, "auth.verify_email.lookup", err)
		return
	}
	if u.IsVerified {
		writeJSON(w, http.StatusOK, messageResponse{Message: "email already verified"})
		return
	}

	verified := true
	if _, err := h.users.UpdateUser(ctx, u.ID, identity.UserPatch{IsVerified: &verified}, h.sessions.Now()); err != nil {
		h.writeStoreError(w, "auth.verify_email.update", err)
		return
	}
	h.log.Info("auth.verify_email.ok", "user_id", u.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	issued, err := h.sessions.Login(r.Context(), identifier, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrAuthenticationFailed) {
			h.log.Info("auth.login.fail")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.serverError(w, "auth.login", err)
		return
	}

	h.log.Info("auth.login.ok", "user_id", issued.User.ID, "token_fp", token.Fingerprint(issued.AccessToken))
	writeJSON(w, http.StatusOK, loginResponse{
		User: loginUser{
			ID:       issued.User.ID,
			Username: issued.User.Username,
			Email:    issued.User.Email,
		},
		AccessToken: issued.AccessToken,
		TokenType:   "bearer",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request, id session.Identity) {
	if err := h.sessions.Logout(r.Context(), id.Token); err != nil {
		h.serverError(w, "auth.logout", err)
		return
	}
	h.log.Info("auth.logout.ok", "user_id", id.UserID, "token_fp", token.Fingerprint(id.Token))
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out, token revoked"})
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request, id session.Identity) {
	writeJSON(w, http.StatusOK, userResponse{
		ID:       id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Role:     string(id.Role),
	})
}

func (h *Handler) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	ctx := r.Context()
	u, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		h.writeStoreError(w, "auth.reset_request.lookup", err)
		return
	}

	tok, err := h.sessions.IssueReset(u.Email)
	if err != nil {
		h.serverError(w, "auth.reset_request.issue", err)
		return
	}
	msg, err := h.composeReset(u.Email, u.Username, tok)
	if err != nil {
		h.serverError(w, "auth.reset_request.compose", err)
		return
	}
	if err := h.emailSender.Send(ctx, msg); err != nil {
		h.log.Error("auth.reset_request.email.fail", "user_id", u.ID, "err", err)
		writeError(w, http.StatusBadGateway, "email_delivery_failed", "could not send email")
		return
	}

	h.log.Info("auth.reset_request.ok", "user_id", u.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "password reset link sent to your email"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required")
		return
	}

	email, err := h.sessions.ConsumeReset(raw)
	if err != nil {
		h.writePurposeTokenError(w, "auth.reset_password", err)
		return
	}
	hash, ok := h.hashPassword(w, "auth.reset_password.hash", req.NewPassword)
	if !ok {
		return
	}

	ctx := r.Context()
	u, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, "invalid_request", "password reset failed")
			return
		}
		h.serverError(w, "auth.reset_password.lookup", err)
		return
	}
	if _, err := h.users.UpdateUser(ctx, u.ID, identity.UserPatch{PasswordHash: &hash}, h.sessions.Now()); err != nil {
		h.writeStoreError(w, "auth.reset_password.update", err)
		return
	}

	h.log.Info("auth.reset_password.ok", "user_id", u.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated, please log in again"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request, id session.Identity) {
	var req changePasswordRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "old_password and new_password are required")
		return
	}

	ctx := r.Context()
	u, err := h.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		h.writeStoreError(w, "auth.change_password.lookup", err)
		return
	}

	ok, err := h.hasher.Verify(u.PasswordHash, req.OldPassword)
	if err != nil {
		h.serverError(w, "auth.change_password.verify", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "old password is incorrect")
		return
	}

	hash, ok := h.hashPassword(w, "auth.change_password.hash", req.NewPassword)
	if !ok {
		return
	}
	if _, err := h.users.UpdateUser(ctx, u.ID, identity.UserPatch{PasswordHash: &hash}, h.sessions.Now()); err != nil {
		h.writeStoreError(w, "auth.change_password.update", err)
		return
	}

	h.log.Info("auth.change_password.ok", "user_id", u.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed"})
}

func (h *Handler) handleRequestEmailChange(w http.ResponseWriter, r *http.Request, id session.Identity) {
	var req emailChangeRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}
	newEmail := strings.TrimSpace(req.NewEmail)
	if !identity.ValidEmail(newEmail) {
		writeError(w, http.StatusBadRequest, "invalid_request", "valid new_email is required")
		return
	}

	ctx := r.Context()
	_, err := h.users.GetUserByEmail(ctx, newEmail)
	switch {
	case err == nil:
		writeError(w, http.StatusConflict, "conflict", "email already registered")
		return
	case !identity.IsNotFound(err):
		h.serverError(w, "auth.email_change.lookup", err)
		return
	}

	tok, err := h.sessions.IssueEmailChange(id.UserID, newEmail)
	if err != nil {
		h.serverError(w, "auth.email_change.issue", err)
		return
	}
	msg, err := h.composeEmailChange(newEmail, id.Username, tok)
	if err != nil {
		h.serverError(w, "auth.email_change.compose", err)
		return
	}
	if err := h.emailSender.Send(ctx, msg); err != nil {
		h.log.Error("auth.email_change.email.fail", "user_id", id.UserID, "err", err)
		writeError(w, http.StatusBadGateway, "email_delivery_failed", "could not send email")
		return
	}

	h.log.Info("auth.email_change.requested", "user_id", id.UserID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "confirmation link sent to the new email"})
}

func (h *Handler) handleConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	userID, newEmail, err := h.sessions.ConsumeEmailChange(raw)
	if err != nil {
		h.writePurposeTokenError(w, "auth.email_change.confirm", err)
		return
	}

	verified := true
	u, err := h.users.UpdateUser(r.Context(), userID, identity.UserPatch{
		Email:      &newEmail,
		IsVerified: &verified,
	}, h.sessions.Now())
	if err != nil {
		h.writeStoreError(w, "auth.email_change.update", err)
		return
	}

	h.log.Info("auth.email_change.ok", "user_id", u.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "email updated"})
}
