package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/formflow/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// notFound writes a 404 with the caller's message (e.g. "trip not found"),
// since the handler is the layer that knows what was being looked up.
func (s *Server) notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}})
}

// fail maps err to a response. Lookups that found nothing become 404; every
// other error is logged and answered with a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(w, notFoundMessage)
		return
	}
	s.log.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}})
}
