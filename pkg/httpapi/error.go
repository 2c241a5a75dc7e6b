// Package httpapi writes JSON responses and the shared error envelope.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/iota-uz/estate-office/pkg/composables"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// RequestID returns the id assigned by the logging middleware, or a fresh
// one which is echoed in the X-Request-Id response header.
func RequestID(w http.ResponseWriter, r *http.Request) string {
	if r != nil {
		if id, ok := composables.UseRequestID(r.Context()); ok && id != "" {
			return id
		}
	}
	id := uuid.NewString()
	if w != nil {
		w.Header().Set("X-Request-Id", id)
	}
	return id
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    map[string]string{"request_id": RequestID(w, r)},
	})
}

// WriteValidation is WriteError with per-field messages attached.
func WriteValidation(w http.ResponseWriter, r *http.Request, code, message string, fields map[string]string) error {
	return WriteJSON(w, http.StatusUnprocessableEntity, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    map[string]string{"request_id": RequestID(w, r)},
		Errors:  fields,
	})
}

func WriteInternal(w http.ResponseWriter, r *http.Request) {
	_ = WriteError(w, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
}
