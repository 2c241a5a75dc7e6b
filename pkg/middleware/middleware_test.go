package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/httpapi"
)

func bufferedLogger(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

func TestWithLogger_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := WithLogger(bufferedLogger(&buf), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = composables.UseRequestID(r.Context())
		composables.UseLogger(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/persons", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	require.Contains(t, buf.String(), `"request-id":"abc-123"`)
	require.Contains(t, buf.String(), `"status-code":418`)
}

func TestWithLogger_KeepsBodyReadable(t *testing.T) {
	var buf bytes.Buffer
	var body map[string]any
	h := WithLogger(bufferedLogger(&buf), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/persons", strings.NewReader(`{"name":"Berger"}`))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, "Berger", body["name"])
	require.Contains(t, buf.String(), "request-body captured")
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := WithLogger(bufferedLogger(&buf), DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/persons/1", nil))
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "INTERNAL_SERVER_ERROR", env.Code)
	require.Equal(t, w.Header().Get("X-Request-Id"), env.Meta["request_id"])
	require.Contains(t, buf.String(), "panic recovered")
}

func TestProvide(t *testing.T) {
	var got any
	h := Provide(constants.AppKey, "app")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Context().Value(constants.AppKey)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "app", got)
}

func TestWithTransaction_NoPool(t *testing.T) {
	called := false
	h := WithTransaction()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	require.False(t, called)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBufferedWriter_FlushesHeadersAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-Id", "r1")
	bw := newBufferedWriter(rec)
	bw.Header().Set("Content-Type", "application/json")
	bw.WriteHeader(http.StatusCreated)
	_, _ = bw.Write([]byte(`{"id":1}`))

	require.Empty(t, rec.Body.String())
	bw.flushTo(rec)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "r1", rec.Header().Get("X-Request-Id"))
	require.Equal(t, `{"id":1}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestRateLimit_DisabledIsPassthrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(RateLimitConfig{})(next)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCors_Preflight(t *testing.T) {
	h := Cors("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/persons", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/api/v1/persons", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
