package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"sort"

	"github.com/samber/lo"

	"github.com/bomcorte/blackfriday/internal/config"
	"github.com/bomcorte/blackfriday/internal/middleware"
	"github.com/bomcorte/blackfriday/internal/model"
	"github.com/bomcorte/blackfriday/internal/repository"
	"github.com/bomcorte/blackfriday/internal/session"
)

// CreateLead handles POST /api/v1/leads — the public form submission.
//
//	@Summary		Capture a lead
//	@Description	Public endpoint used by the landing page form
//	@Tags			leads
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	CreateLeadResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/leads [post]
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var sub model.LeadSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub.Name = h.sanitize(sub.Name)
	sub.Email = h.sanitize(sub.Email)
	sub.WhatsApp = h.sanitize(sub.WhatsApp)
	sub.Region = h.sanitize(sub.Region)
	sub.City = h.sanitize(sub.City)
	sub.Source = h.sanitize(sub.Source)
	sub.Medium = h.sanitize(sub.Medium)
	sub.Campaign = h.sanitize(sub.Campaign)
	sub.Term = h.sanitize(sub.Term)
	sub.Content = h.sanitize(sub.Content)
	if sub.CallingCode == "" {
		sub.CallingCode = config.DomesticCallingCode
	}

	if sub.Name == "" || sub.Email == "" || sub.WhatsApp == "" {
		h.writeError(w, http.StatusBadRequest, "name, email, and whatsapp are required")
		return
	}
	if _, err := mail.ParseAddress(sub.Email); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	// The consent checkbox is enforced client-side too, but the client
	// cannot be trusted with it.
	if !sub.Consent {
		h.writeError(w, http.StatusBadRequest, "consent is required")
		return
	}

	id, err := h.leads.Create(r.Context(), sub, middleware.ExtractIP(r), r.UserAgent())
	if err != nil {
		slog.Error("api: failed to create lead", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create lead")
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyLead(r.Context(), sub)
	}

	h.writeJSON(w, http.StatusCreated, CreateLeadResponse{Success: true, ID: id})
}

// ListLeads handles GET /api/v1/leads.
//
//	@Summary		List leads
//	@Description	Paginated lead list with optional status filter and substring search
//	@Tags			leads
//	@Produce		json
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(50)	minimum(10)	maximum(100)
//	@Param			status	query		string	false	"Status filter"	Enums(Pending, Attended)
//	@Param			search	query		string	false	"Substring search across name/email/whatsapp"
//	@Success		200		{object}	PaginatedLeads
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/leads [get]
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntParam(r, "limit", config.DefaultPageSize)
	if perPage < config.MinPageSize {
		perPage = config.MinPageSize
	}
	if perPage > config.MaxPageSize {
		perPage = config.MaxPageSize
	}

	status := model.LeadStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid status (valid: Pending, Attended)")
		return
	}

	leads, total, err := h.leads.List(r.Context(), repository.ListFilter{
		Status:  status,
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		slog.Error("api: failed to list leads", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	pages := (total + perPage - 1) / perPage
	if leads == nil {
		leads = []model.Lead{}
	}
	h.writeJSON(w, http.StatusOK, PaginatedLeads{
		Leads: leads,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
		},
	})
}

// LeadStats handles GET /api/v1/leads/stats.
//
//	@Summary		Dashboard statistics
//	@Tags			leads
//	@Produce		json
//	@Success		200	{object}	repository.LeadStats
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/leads/stats [get]
func (h *Handler) LeadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.leads.GetStats(r.Context())
	if err != nil {
		slog.Error("api: failed to fetch lead stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	if stats.TopRegions == nil {
		stats.TopRegions = []repository.CountRow{}
	}
	if stats.TopSources == nil {
		stats.TopSources = []repository.CountRow{}
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetLead handles GET /api/v1/leads/{id}.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	lead, err := h.leads.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to fetch lead", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch lead")
		return
	}

	h.writeJSON(w, http.StatusOK, lead)
}

// UpdateLead handles PUT /api/v1/leads/{id}. Only a fixed set of fields
// may be changed; the request must supply at least one of them.
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := make(map[string]any)
	if req.Status != nil {
		status := model.LeadStatus(*req.Status)
		if !status.Valid() {
			h.writeError(w, http.StatusBadRequest, "invalid status (valid: Pending, Attended)")
			return
		}
		changes["status"] = string(status)
	}
	if req.RepresentativeName != nil {
		changes["representative_name"] = h.sanitize(*req.RepresentativeName)
	}
	if req.Name != nil {
		changes["name"] = h.sanitize(*req.Name)
	}
	if req.Email != nil {
		email := h.sanitize(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid email")
			return
		}
		changes["email"] = email
	}
	if req.WhatsApp != nil {
		changes["whatsapp"] = h.sanitize(*req.WhatsApp)
	}
	if req.Region != nil {
		changes["region"] = h.sanitize(*req.Region)
	}
	if req.City != nil {
		changes["city"] = h.sanitize(*req.City)
	}

	if len(changes) == 0 {
		h.writeError(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}

	err := h.leads.Update(r.Context(), id, changes)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to update lead", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update lead")
		return
	}

	h.recordAudit(r, "update_lead", map[string]any{"lead_id": id, "fields": changedFields(changes)})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteLead handles DELETE /api/v1/leads/{id}.
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	err := h.leads.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to delete lead", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete lead")
		return
	}

	h.recordAudit(r, "delete_lead", map[string]any{"lead_id": id})
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// recordAudit writes an audit entry for the authenticated user.
func (h *Handler) recordAudit(r *http.Request, action string, details any) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return
	}
	h.audit.Record(r.Context(), sess.UserID, action, details, middleware.ExtractIP(r))
}

func changedFields(changes map[string]any) []string {
	fields := lo.Keys(changes)
	sort.Strings(fields)
	return fields
}
