package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/estate-office/pkg/composables"
)

func TestWriteError_UsesContextRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/persons/9", nil)
	r = r.WithContext(composables.WithParams(context.Background(), &composables.Params{RequestID: "req-1"}))
	w := httptest.NewRecorder()

	require.NoError(t, WriteError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found"))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "PERSON_NOT_FOUND", env.Code)
	require.Equal(t, "req-1", env.Meta["request_id"])
	require.Nil(t, env.Errors)
}

func TestWriteError_GeneratesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, WriteValidation(w, r, "PERSON_VALIDATION_FAILED", "sex is invalid", map[string]string{"sex": "sex is invalid"}))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotEmpty(t, env.Meta["request_id"])
	require.Equal(t, env.Meta["request_id"], w.Header().Get("X-Request-Id"))
	require.Equal(t, "sex is invalid", env.Errors["sex"])
}

func TestFallbackHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	MethodNotAllowed().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
