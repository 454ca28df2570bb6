package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Close()
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst spent")
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	now = now.Add(time.Hour)
	rl.evict(10 * time.Minute)
	rl.mu.Lock()
	assert.Empty(t, rl.buckets)
	rl.mu.Unlock()
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.5, 1)
	defer rl.Close()

	r := chi.NewRouter()
	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Use(RateLimit(rl, OrgAndClientIP))
		r.Get("/reports", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	})

	call := func(org string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orgs/"+org+"/reports", nil)
		req.RemoteAddr = "10.0.0.1"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, call("org-1").Code)
	limited := call("org-1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), `"error"`)

	assert.Equal(t, http.StatusOK, call("org-2").Code, "other orgs have their own bucket")
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	assert.Equal(t, 1, rl.burst)
	rl.Close()
	rl.Close()
}
