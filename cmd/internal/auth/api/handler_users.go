package api

import (
	"net/http"
	"strconv"
	"strings"

	"campus/cmd/identity"
	"campus/cmd/internal/auth/session"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request, _ session.Identity) {
	q := r.URL.Query()
	skip, ok := queryInt(q.Get("skip"), 0)
	if !ok || skip < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "skip must be a non-negative integer")
		return
	}
	limit, ok := queryInt(q.Get("limit"), identity.DefaultListLimit)
	if !ok || limit < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
		return
	}

	f := identity.ListFilter{
		Username: strings.TrimSpace(q.Get("username")),
		Email:    strings.TrimSpace(q.Get("email")),
		Role:     strings.TrimSpace(q.Get("role")),
		Skip:     skip,
		Limit:    limit,
	}
	users, total, err := h.users.ListUsers(r.Context(), f)
	if err != nil {
		h.writeStoreError(w, "auth.users.list", err)
		return
	}

	skip, limit = f.Bounds()
	data := make([]userResponse, 0, len(users))
	for _, u := range users {
		data = append(data, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, usersListResponse{
		TotalUsers: total,
		Skip:       skip,
		Limit:      limit,
		Data:       data,
	})
}

func (h *Handler) handleAdminUpdate(w http.ResponseWriter, r *http.Request, caller session.Identity) {
	targetID := r.PathValue("id")

	var req adminUpdateRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}

	ctx := r.Context()
	target, err := h.users.GetUserByID(ctx, targetID)
	if err != nil {
		h.writeStoreError(w, "auth.users.update.lookup", err)
		return
	}

	patch := identity.UserPatch{Username: req.Username, Email: req.Email}
	if req.Role != nil {
		role, ok := identity.ParseRole(*req.Role)
		if !ok || strings.TrimSpace(*req.Role) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "role must be admin or user")
			return
		}
		if caller.UserID == target.ID && role != target.Role {
			writeError(w, http.StatusForbidden, "forbidden", "admins cannot change their own role")
			return
		}
		patch.Role = &role
	}
	if req.Password != nil {
		hash, ok := h.hashPassword(w, "auth.users.update.hash", *req.Password)
		if !ok {
			return
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	updated, err := h.users.UpdateUser(ctx, target.ID, patch, h.sessions.Now())
	if err != nil {
		h.writeStoreError(w, "auth.users.update", err)
		return
	}

	h.log.Info("auth.users.update.ok", "user_id", updated.ID, "by", caller.UserID)
	writeJSON(w, http.StatusOK, updatedUserResponse{
		userResponse: toUserResponse(updated),
		Message:      "user updated",
	})
}

func (h *Handler) handleSelfUpdate(w http.ResponseWriter, r *http.Request, caller session.Identity) {
	targetID := r.PathValue("id")
	if targetID != caller.UserID {
		writeError(w, http.StatusForbidden, "forbidden", "you can only update your own account")
		return
	}

	var req selfUpdateRequest
	if !readJSON(w, r, h.cfg.MaxBodyBytes, &req) {
		return
	}

	patch := identity.UserPatch{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		hash, ok := h.hashPassword(w, "auth.update_self.hash", *req.Password)
		if !ok {
			return
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), caller.UserID, patch, h.sessions.Now())
	if err != nil {
		h.writeStoreError(w, "auth.update_self", err)
		return
	}

	h.log.Info("auth.update_self.ok", "user_id", updated.ID)
	writeJSON(w, http.StatusOK, updatedUserResponse{
		userResponse: toUserResponse(updated),
		Message:      "user updated",
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request, caller session.Identity) {
	targetID := r.PathValue("id")
	if !caller.IsAdmin() && targetID != caller.UserID {
		writeError(w, http.StatusForbidden, "forbidden", "insufficient privileges")
		return
	}

	if err := h.users.DeleteUser(r.Context(), targetID); err != nil {
		h.writeStoreError(w, "auth.users.delete", err)
		return
	}

	h.log.Info("auth.users.delete.ok", "user_id", targetID, "by", caller.UserID)
	writeJSON(w, http.StatusOK, deleteResponse{Message: "user deleted", ID: targetID})
}

func queryInt(raw string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
