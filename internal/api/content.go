package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bomcorte/blackfriday/internal/model"
)

// PublicContent handles GET /api/v1/content — the unauthenticated read
// the landing page renders from.
//
//	@Summary	Landing page content
//	@Tags		content
//	@Produce	json
//	@Success	200	{object}	model.LandingPageContent
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/v1/content [get]
func (h *Handler) PublicContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.content.GetContent(r.Context())
	if err != nil {
		slog.Error("api: failed to fetch content", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch content")
		return
	}
	h.writeJSON(w, http.StatusOK, content)
}

// GetContent handles GET /api/v1/admin/content.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	h.PublicContent(w, r)
}

// SaveContent handles PUT /api/v1/admin/content. The full content
// object is re-encoded into its config keys and written atomically.
func (h *Handler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var content model.LandingPageContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.content.SaveContent(r.Context(), content); err != nil {
		slog.Error("api: failed to save content", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save content")
		return
	}

	h.recordAudit(r, "update_landing_page_config", nil)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetIntegrations handles GET /api/v1/admin/integrations.
func (h *Handler) GetIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.content.GetIntegrations(r.Context())
	if err != nil {
		slog.Error("api: failed to fetch integrations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch integrations")
		return
	}
	h.writeJSON(w, http.StatusOK, integrations)
}

// SaveIntegrations handles PUT /api/v1/admin/integrations. Unknown
// integration types are rejected during decoding.
func (h *Handler) SaveIntegrations(w http.ResponseWriter, r *http.Request) {
	var integrations []model.Integration
	if err := json.NewDecoder(r.Body).Decode(&integrations); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid integrations: "+err.Error())
		return
	}

	if err := h.content.SaveIntegrations(r.Context(), integrations); err != nil {
		slog.Error("api: failed to save integrations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save integrations")
		return
	}

	h.recordAudit(r, "update_integrations", map[string]any{"count": len(integrations)})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
