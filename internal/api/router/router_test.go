package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpmiddleware "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/http/middleware"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reporting"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/settings"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyLoader struct{}

func (emptyLoader) LoadSnapshot(_ context.Context, orgID string) (*records.Snapshot, error) {
	return &records.Snapshot{OrgID: orgID, Version: "v1"}, nil
}

func (emptyLoader) DataVersion(context.Context, string) (string, error) { return "v1", nil }

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := settings.NewStore(client, "UTC")
	svc := reporting.NewService(emptyLoader{}, store, nil,
		reporting.WithCache(reporting.NewCache(client, time.Minute)),
		reporting.WithClock(func() time.Time { return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC) }))

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "groomer_test_total", Help: "test"}))

	return New(&Config{
		Reports:            reporting.NewHandler(svc, nil),
		Settings:           settings.NewHandler(store, nil),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
		RateLimiter:        limiter,
		ReadyChecks: map[string]Check{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		},
	})
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.1.1:5555"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthAndReady(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(router, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true,"checks":{"redis":"ok"}}`, rec.Body.String())
}

func TestRouterReadyReportsFailure(t *testing.T) {
	router := New(&Config{ReadyChecks: map[string]Check{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}})

	rec := serve(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRouterMetrics(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "groomer_test_total")
}

func TestRouterReportAndSettings(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodPut, "/api/v1/orgs/org-1/settings", `{"retention": {"lapsed_threshold_days": 45}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/orgs/org-1/reports?preset=last7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report reports.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "org-1", report.OrgID)
	assert.Equal(t, 45, report.Retention.LapsedThresholdDays)

	rec = serve(router, http.MethodGet, "/api/v1/orgs/org-1/reports/at-risk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"org_id":"org-1","threshold_days":45,"customers":[]}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/orgs/bad.org/reports", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterRateLimitsReports(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Close)
	router := newTestRouter(t, limiter)

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/orgs/org-1/reports", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/api/v1/orgs/org-1/reports/insights", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/orgs/org-1/settings", "").Code, "settings are not throttled")
}
