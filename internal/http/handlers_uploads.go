package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/openfolio/portfolio-api/internal/service"
)

// maxUploadRequestBytes bounds the whole multipart request body; the media
// service enforces the per-file limit separately.
const maxUploadRequestBytes = 12 << 20

// UploadHandlers provides the admin image upload endpoint.
type UploadHandlers struct {
	Svc *service.MediaService
}

// Upload accepts a multipart image upload and returns its CDN URL.
// POST /api/admin/uploads.
func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)

	if err := r.ParseMultipartForm(maxUploadRequestBytes); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_file",
			Err:     errors.New("multipart field \"file\" is required"),
		})
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "read_failed", Err: err})
		return
	}

	url, err := h.Svc.Upload(r.Context(), header.Filename, content)
	if err != nil {
		WriteServiceError(w, err, "upload_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}
