// Package api implements the public and admin JSON endpoints.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bomcorte/blackfriday/internal/middleware"
	"github.com/bomcorte/blackfriday/internal/session"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	leads      leadStore
	content    contentStore
	users      userStore
	audit      auditLog
	locations  locationService
	notifier   leadNotifier
	sessions   *session.Store
	sanitizer  *bluemonday.Policy
	bufferPool *sync.Pool // Pool of bytes.Buffer for JSON encoding
}

// New creates a new API Handler.
// notifier can be nil (webhook forwarding is optional).
func New(leads leadStore, content contentStore, users userStore, audit auditLog, locations locationService, notifier leadNotifier, sessions *session.Store) (*Handler, error) {
	if leads == nil {
		return nil, errors.New("lead repository is required")
	}
	if content == nil {
		return nil, errors.New("config repository is required")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if audit == nil {
		return nil, errors.New("audit repository is required")
	}
	if locations == nil {
		return nil, errors.New("location client is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	return &Handler{
		leads:     leads,
		content:   content,
		users:     users,
		audit:     audit,
		locations: locations,
		notifier:  notifier,
		sessions:  sessions,
		sanitizer: bluemonday.StrictPolicy(),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}, nil
}

// RegisterRoutes registers all API routes on the given mux. The public
// lead create endpoint is wrapped with the rate limiter.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, rl *middleware.RateLimiter) {
	// Public
	mux.Handle("POST /api/v1/leads", rl.Middleware(http.HandlerFunc(h.CreateLead)))
	mux.HandleFunc("GET /api/v1/content", h.PublicContent)
	mux.HandleFunc("GET /api/v1/locations/regions", h.Regions)
	mux.HandleFunc("GET /api/v1/locations/regions/{code}/cities", h.Cities)
	mux.HandleFunc("GET /api/v1/locations/postal-codes/{code}", h.ResolvePostalCode)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.Handle("POST /api/v1/auth/logout", h.sessions.RequireAuth(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/v1/auth/me", h.sessions.RequireAuth(http.HandlerFunc(h.Me)))

	// Admin panel
	auth := h.sessions.RequireAuth
	editor := func(next http.Handler) http.Handler { return h.sessions.RequireRole(session.Editor, next) }
	admin := func(next http.Handler) http.Handler { return h.sessions.RequireRole(session.Admin, next) }

	mux.Handle("GET /api/v1/leads", auth(http.HandlerFunc(h.ListLeads)))
	mux.Handle("GET /api/v1/leads/stats", auth(http.HandlerFunc(h.LeadStats)))
	mux.Handle("GET /api/v1/leads/{id}", auth(http.HandlerFunc(h.GetLead)))
	mux.Handle("PUT /api/v1/leads/{id}", editor(http.HandlerFunc(h.UpdateLead)))
	mux.Handle("DELETE /api/v1/leads/{id}", admin(http.HandlerFunc(h.DeleteLead)))

	mux.Handle("GET /api/v1/admin/content", auth(http.HandlerFunc(h.GetContent)))
	mux.Handle("PUT /api/v1/admin/content", editor(http.HandlerFunc(h.SaveContent)))
	mux.Handle("GET /api/v1/admin/integrations", auth(http.HandlerFunc(h.GetIntegrations)))
	mux.Handle("PUT /api/v1/admin/integrations", editor(http.HandlerFunc(h.SaveIntegrations)))

	mux.Handle("GET /api/v1/admin/users", admin(http.HandlerFunc(h.ListUsers)))
	mux.Handle("POST /api/v1/admin/users", admin(http.HandlerFunc(h.CreateUser)))
	mux.Handle("PUT /api/v1/admin/users/{id}", admin(http.HandlerFunc(h.UpdateUser)))
	mux.Handle("DELETE /api/v1/admin/users/{id}", admin(http.HandlerFunc(h.DeleteUser)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	buf := h.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		h.bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"internal server error","code":500}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  status,
	})
}

// sanitize strips tags and trims whitespace from user-supplied text.
func (h *Handler) sanitize(s string) string {
	return strings.TrimSpace(h.sanitizer.Sanitize(s))
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseID validates the numeric id path parameter, writing a 400 on
// failure. Returns the id and true when valid.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
