package httpx

import (
	"errors"
	"net/http"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/service"
)

// SkillHandlers provides HTTP handlers for skill operations.
type SkillHandlers struct {
	Svc *service.SkillService
}

// List handles the public skill listing.
// GET /api/skills.
func (h *SkillHandlers) List(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Svc.List(r.Context())
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"skills": skills})
}

// Create handles admin skill creation.
// POST /api/admin/skills.
func (h *SkillHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSkillRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	skill, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, skill)
}

// Update handles admin skill updates.
// PUT /api/admin/skills/{id}.
func (h *SkillHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(r)
	if !ok {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("skill id is required")},
		)
		return
	}

	var req model.UpdateSkillRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	skill, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}
	WriteJSON(w, http.StatusOK, skill)
}

// Delete handles admin skill deletion. Skills still linked to a project
// surface as a conflict (the schema restricts the delete).
// DELETE /api/admin/skills/{id}.
func (h *SkillHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(r)
	if !ok {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("skill id is required")},
		)
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "delete_failed")
		return
	}
	if !deleted {
		WriteError(
			w,
			ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("skill not found")},
		)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
