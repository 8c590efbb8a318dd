package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/openfolio/portfolio-api/internal/errors"
)

// statusForError maps a structured application error to an HTTP status.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errCodeForError picks the machine-readable error code for the response
// body. Unclassified errors report the generic fallback so internals are
// never leaked into the API contract.
func errCodeForError(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return fallback
}

// WriteAppError renders a structured application error as a JSON response,
// deriving status and error code from the error's classification. Field
// metadata from validation/conflict errors is included when present.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	status := statusForError(err)

	body := map[string]string{
		"error":   errCodeForError(err, fallback),
		"message": publicMessage(err, status),
	}
	if field := apperrors.GetField(err); field != "" {
		body["field"] = field
	}

	WriteJSON(w, status, body)
}

// WriteServiceError renders a service-layer error, classifying untyped
// validation errors as 400 before falling back to AppError mapping.
func WriteServiceError(w http.ResponseWriter, err error, fallback string) {
	if apperrors.GetCode(err) == "" && isValidationError(err) {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}
	WriteAppError(w, err, fallback)
}

// publicMessage hides internal error detail on 5xx responses; client
// errors keep their message since it describes the caller's mistake.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
