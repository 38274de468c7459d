package handlers

import (
	"errors"
	"net/http"

	"github.com/scanperks/backend/internal/services"
)

// statusForError maps service sentinel errors to HTTP statuses. Unknown
// errors fall through to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrCodeNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUnknownAccount),
		errors.Is(err, services.ErrUnknownCatalogItem):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCodeAlreadyConsumed),
		errors.Is(err, services.ErrCodeInactive),
		errors.Is(err, services.ErrDuplicateSerial),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrCourierRequired):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a service error with its mapped status. Internal
// errors are masked so store details never leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	services.SendErrorResponse(w, message, status, nil)
}
