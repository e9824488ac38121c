package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesULID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxGetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(requestIDHeader))
	_, err := ulid.ParseStrict(seen)
	assert.NoError(t, err)
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxGetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestLogInternalServerErrors_RecoversPanic(t *testing.T) {
	handler := RequestID(LogInternalServerErrors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusResponseWriter_ImplicitOK(t *testing.T) {
	rec := httptest.NewRecorder()
	srw := &statusResponseWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := srw.Write([]byte("ok"))
	require.NoError(t, err)
	srw.WriteHeader(http.StatusTeapot)

	assert.True(t, srw.wroteHeader)
	assert.Equal(t, http.StatusOK, srw.status)
	assert.Equal(t, http.StatusOK, rec.Code)
}
