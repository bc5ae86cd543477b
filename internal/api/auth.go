package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/bomcorte/blackfriday/internal/middleware"
	"github.com/bomcorte/blackfriday/internal/repository"
	"github.com/bomcorte/blackfriday/internal/session"
)

// Login handles POST /api/v1/auth/login. Both unknown email and wrong
// password produce the same response; failed attempts are audited.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("api: login lookup failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		if user != nil {
			h.audit.Record(r.Context(), user.ID, "login_failed", map[string]any{"email": req.Email}, middleware.ExtractIP(r))
		}
		h.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(r.Context(), user)
	if err != nil {
		slog.Error("api: failed to create session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	session.SetCookie(w, sess)
	h.audit.Record(r.Context(), user.ID, "login", map[string]any{"email": user.Email}, middleware.ExtractIP(r))
	h.writeJSON(w, http.StatusOK, SessionResponse{UserID: user.ID, Email: user.Email, Role: user.Role})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if sess != nil {
		if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
			slog.Error("api: failed to delete session", "error", err)
		}
		h.audit.Record(r.Context(), sess.UserID, "logout", map[string]any{"email": sess.Email}, middleware.ExtractIP(r))
	}

	session.ClearCookie(w)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.writeJSON(w, http.StatusOK, SessionResponse{UserID: sess.UserID, Email: sess.Email, Role: sess.Role})
}
