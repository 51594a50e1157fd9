// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Services wrap these with
// fmt.Errorf("%w: ...") so handlers can map them without string matching.
var (
	// ErrValidation marks a missing or invalid required write field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown id, or a permanent delete attempted on a
	// non-archived entity.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden marks a patient-entity operation without the admin role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a unique-constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrUpstream marks an unreachable reconciliation source. It is isolated
	// per source and never escalated past the reconciler.
	ErrUpstream = errors.New("upstream fetch failed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUpstream):
		Problem(w, http.StatusBadGateway, "Upstream Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
