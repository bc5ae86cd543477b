package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/bomcorte/blackfriday/internal/model"
	"github.com/bomcorte/blackfriday/internal/repository"
	"github.com/bomcorte/blackfriday/internal/session"
)

// ListUsers handles GET /api/v1/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("api: failed to list users", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	h.writeJSON(w, http.StatusOK, lo.Map(users, func(u model.User, _ int) UserResponse {
		return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
	}))
}

// CreateUser handles POST /api/v1/admin/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 8 {
		h.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if !req.Role.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid role (valid: admin, editor, viewer)")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("api: failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	id, err := h.users.Create(r.Context(), req.Email, string(hash), req.Role)
	if err != nil {
		slog.Error("api: failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.recordAudit(r, "create_user", map[string]any{"user_id": id, "email": req.Email, "role": req.Role})
	h.writeJSON(w, http.StatusCreated, UserResponse{ID: id, Email: req.Email, Role: req.Role})
}

// UpdateUser handles PUT /api/v1/admin/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := make(map[string]any)
	if req.Role != nil {
		if !req.Role.Valid() {
			h.writeError(w, http.StatusBadRequest, "invalid role (valid: admin, editor, viewer)")
			return
		}
		changes["role"] = string(*req.Role)
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			h.writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("api: failed to hash password", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		changes["password_hash"] = string(hash)
	}

	if len(changes) == 0 {
		h.writeError(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}

	err := h.users.Update(r.Context(), id, changes)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to update user", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	h.recordAudit(r, "update_user", map[string]any{"user_id": id, "fields": changedFields(changes)})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}. Admins cannot
// delete their own account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if sess, ok := session.FromContext(r.Context()); ok && sess.UserID == id {
		h.writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	err := h.users.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to delete user", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.recordAudit(r, "delete_user", map[string]any{"user_id": id})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
