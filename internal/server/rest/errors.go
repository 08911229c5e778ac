package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/validation"
)

type errorBody struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrInvalidRequest):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrExpiredToken):
		return http.StatusBadRequest, common.ErrExpiredToken.Error()
	case errors.Is(err, common.ErrDuplicateAccount):
		return http.StatusConflict, common.ErrDuplicateAccount.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, common.ErrAccountNotVerified):
		return http.StatusForbidden, common.ErrAccountNotVerified.Error()
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError renders err without leaking infrastructure details; those go to
// the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusOf(err)
	body := errorBody{StatusCode: code, Message: msg}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Errors = make(map[string]string, len(verr.Fields))
		for field, ferr := range verr.Fields {
			body.Errors[field] = ferr.Error()
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"request_id", requestIDFrom(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}

	writeJSON(w, code, body)
}
