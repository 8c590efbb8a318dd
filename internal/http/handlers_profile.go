// Package httpx provides HTTP handlers and utilities for the portfolio API.
package httpx

import (
	"net/http"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/service"
)

// ProfileHandlers provides HTTP handlers for the display profile.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

// Get handles the public profile read.
// GET /api/profile.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.Get(r.Context())
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Update handles the admin profile update.
// PUT /api/profile.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Svc.Update(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
