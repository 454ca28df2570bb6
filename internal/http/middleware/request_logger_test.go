package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	return entry
}

func TestRequestLoggerAssignsID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("debug", &buf)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad"}`, http.StatusBadRequest)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orgs/org-1/reports", nil))

	id := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, float64(http.StatusBadRequest), entry["status"])
	assert.Equal(t, "/api/v1/orgs/org-1/reports", entry["path"])
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter("info", &buf))(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "req-123", entry["request_id"])
}
