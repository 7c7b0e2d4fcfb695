package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"techprep.io/interview-bot/internal/core"
	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

// Stable machine-readable error codes.
const (
	codeValidationError = "validation_error"
	codeConflict        = "conflict"
	codeNotFound        = "not_found"
	codeForbidden       = "forbidden"
	codeUpstreamError   = "upstream_error"
	codeInternalError   = "internal_error"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// renderError maps the error taxonomy onto status codes and stable codes.
// Unclassified errors become an opaque 500: internal detail is logged, never
// sent to the client.
func renderError(w http.ResponseWriter, err error) {
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, codeValidationError, validationErr.Message)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, "a user with this WhatsApp number already exists")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, whatsapp.ErrUpstream):
		writeError(w, http.StatusBadGateway, codeUpstreamError, "upstream service failure")
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}
