package httpapi

import (
	"encoding/json"
	"net/http"

	"paybench-engine/internal/errs"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteDomainError maps the engine's error taxonomy onto status codes.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errs.KindNotFound:
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errs.KindConfig:
		WriteError(w, r, http.StatusInternalServerError, "config_error", err.Error())
	case errs.KindUpstream:
		WriteError(w, r, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
