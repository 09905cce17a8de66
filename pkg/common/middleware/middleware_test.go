package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Configure(&buf, "info")
	t.Cleanup(func() { logger.Configure(os.Stdout, "info") })
	return &buf
}

func TestLoggingAssignsRequestID(t *testing.T) {
	logs := captureLogs(t)
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/search", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	reqID := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, reqID)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, reqID, entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/patients/search", entry["path"])
}

func TestLoggingKeepsCallerRequestID(t *testing.T) {
	captureLogs(t)
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	captureLogs(t)
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStandardLogsRecoveredPanics(t *testing.T) {
	logs := captureLogs(t)
	handler := Standard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/patients/sync", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var access map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "HTTP request" {
			access = entry
		}
	}
	require.NotNil(t, access, "access log line missing")
	assert.Equal(t, float64(http.StatusInternalServerError), access["status"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), access["request_id"])
}
