package httpx

import (
	"errors"
	"net/http"

	"github.com/syedosmanali/bizpulse-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Kinds are matched with errors.Is so wrapped errors keep their mapping.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrTenantMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
