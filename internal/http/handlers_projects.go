package httpx

import (
	"errors"
	"net/http"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/service"
)

const maxProjectListLimit = 100 // Maximum number of projects that can be requested in one call

// ProjectHandlers provides HTTP handlers for project operations.
type ProjectHandlers struct {
	Svc *service.ProjectService
}

// List handles the public project listing: published only, newest first.
// GET /api/projects.
func (h *ProjectHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 20, maxProjectListLimit)

	projects, err := h.Svc.ListPublished(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"limit":    limit,
		"offset":   offset,
	})
}

// ListAll handles the admin project listing, drafts included.
// GET /api/admin/projects.
func (h *ProjectHandlers) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 20, maxProjectListLimit)

	projects, err := h.Svc.ListAll(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetByID handles the public project detail read.
// GET /api/projects/{id}.
func (h *ProjectHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(r)
	if !ok {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("project id is required")},
		)
		return
	}

	project, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// Create handles admin project creation.
// POST /api/admin/projects.
func (h *ProjectHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	project, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, project)
}

// Update handles admin project updates, including replacing skill links.
// PUT /api/admin/projects/{id}.
func (h *ProjectHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(r)
	if !ok {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("project id is required")},
		)
		return
	}

	var req model.UpdateProjectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	project, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// Delete handles admin project deletion.
// DELETE /api/admin/projects/{id}.
func (h *ProjectHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(r)
	if !ok {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("project id is required")},
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
			ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("project not found")},
		)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
