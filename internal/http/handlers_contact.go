package httpx

import (
	"errors"
	"net/http"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/service"
)

const maxContactListLimit = 100 // Maximum number of messages that can be requested in one call

// ContactHandlers provides HTTP handlers for the contact form and inbox.
type ContactHandlers struct {
	Svc *service.ContactService
}

// Submit handles the public contact form submission.
// POST /api/contact.
func (h *ContactHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.CreateContactMessageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "submit_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"id": msg.ID, "status": "received"})
}

// List handles the admin inbox listing, newest first.
// GET /api/admin/contact.
func (h *ContactHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxContactListLimit)

	messages, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"limit":    limit,
		"offset":   offset,
	})
}

// Delete handles admin inbox message deletion.
// DELETE /api/admin/contact/{id}.
func (h *ContactHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("message id is required")},
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
			ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("message not found")},
		)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
