package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/skyroute/airgate/internal/domain/gateway"
)

// Error codes of the JSON error body.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// badRequestError marks a body that is not valid JSON for the route.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// writeError maps err to a status and JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := LoggerFromContext(r.Context())

	var (
		badReq  *badRequestError
		invalid validator.ValidationErrors
	)
	switch {
	case errors.As(err, &badReq):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   CodeBadRequest,
			Message: "Request body is not valid JSON for this endpoint",
			Details: badReq.Error(),
		})

	case errors.As(err, &invalid):
		writeJSON(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   CodeValidation,
			Message: "Request validation failed",
			Details: fieldErrors(invalid),
		})

	case errors.Is(err, gateway.ErrUnavailable):
		logger.Error("reservation backend unavailable", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, ErrorResponse{
			Error:   CodeServiceUnavailable,
			Message: "Reservation backend is temporarily unavailable",
			Details: err.Error(),
		})

	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
			Error:   CodeInternal,
			Message: "An unexpected error occurred. Please try again later.",
		})
	}
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldError{
			Field:   fieldPath(e),
			Rule:    e.Tag(),
			Message: fieldMessage(e),
		})
	}
	return out
}

// fieldPath returns the JSON path of the failing field without the
// top-level type name, e.g. "passengers[0].lastname".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min", "gte":
		return e.Field() + " must be at least " + e.Param()
	default:
		return e.Field() + " failed " + e.Tag() + " validation"
	}
}
