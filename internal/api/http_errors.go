package api

import (
	"errors"
	"net/http"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatPrerequisite, core.ErrCatConflict, core.ErrCatTransition:
		return http.StatusConflict, true
	case core.ErrCatProvider:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps err onto a status code. Internal failures are
// logged and reported without detail.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		s.logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	var domErr *core.DomainError
	errors.As(err, &domErr)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	respondError(w, status, domErr.Code, domErr.Message)
}
