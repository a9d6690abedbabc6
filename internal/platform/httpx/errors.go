// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrValidation    = errors.New("validation failed")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnprocessable = errors.New("unprocessable entity")
)

// Titled is implemented by errors that carry their own problem title.
type Titled interface {
	ProblemTitle() string
}

// ValidationError lists field level failures of a request payload.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, ValidationProblem{
			ProblemDetail: ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()},
			Errors:        verr.Details,
		})
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, titleOr(err, "Not Found"), err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, titleOr(err, "Duplicate"), err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, titleOr(err, "Validation Failed"), err.Error())
	case errors.Is(err, ErrUnprocessable):
		Problem(w, http.StatusUnprocessableEntity, titleOr(err, "Unprocessable Entity"), err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, titleOr(err, "Forbidden"), err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, titleOr(err, "Unauthorized"), err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func titleOr(err error, fallback string) string {
	var titled Titled
	if errors.As(err, &titled) {
		if title := titled.ProblemTitle(); title != "" {
			return title
		}
	}
	return fallback
}
