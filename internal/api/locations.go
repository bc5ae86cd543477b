package api

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/bomcorte/blackfriday/internal/location"
)

var (
	regionCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	postalCodePattern = regexp.MustCompile(`^\d{8}$`)
)

// Regions handles GET /api/v1/locations/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.locations.Regions(r.Context())
	if err != nil {
		slog.Error("api: failed to fetch regions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch regions")
		return
	}
	h.writeJSON(w, http.StatusOK, regions)
}

// Cities handles GET /api/v1/locations/regions/{code}/cities.
func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !regionCodePattern.MatchString(code) {
		h.writeError(w, http.StatusBadRequest, "invalid region code")
		return
	}

	cities, err := h.locations.Cities(r.Context(), code)
	if err != nil {
		slog.Error("api: failed to fetch cities", "region", code, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch cities")
		return
	}
	h.writeJSON(w, http.StatusOK, cities)
}

// ResolvePostalCode handles GET /api/v1/locations/postal-codes/{code}.
// The code must be exactly 8 digits (unmasked).
func (h *Handler) ResolvePostalCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !postalCodePattern.MatchString(code) {
		h.writeError(w, http.StatusBadRequest, "postal code must be 8 digits")
		return
	}

	addr, err := h.locations.ResolvePostalCode(r.Context(), code)
	if errors.Is(err, location.ErrPostalCodeNotFound) {
		h.writeError(w, http.StatusNotFound, "postal code not found")
		return
	}
	if err != nil {
		slog.Error("api: failed to resolve postal code", "error", err)
		h.writeError(w, http.StatusBadGateway, "failed to resolve postal code")
		return
	}
	h.writeJSON(w, http.StatusOK, addr)
}
