package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	httpmiddleware "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/http/middleware"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reporting"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/settings"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Reports            *reporting.Handler
	Settings           *settings.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter throttles report endpoints per org and client. Nil disables it.
	RateLimiter *httpmiddleware.RateLimiter
	// ReadyChecks run on /ready, keyed by dependency name.
	ReadyChecks map[string]Check
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	r.Get("/ready", ready(cfg.ReadyChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1/orgs/{orgID}", func(org chi.Router) {
		org.Use(requireOrgID)
		org.Use(middleware.Timeout(30 * time.Second))

		if cfg.Reports != nil {
			org.Group(func(rep chi.Router) {
				if cfg.RateLimiter != nil {
					rep.Use(httpmiddleware.RateLimit(cfg.RateLimiter, httpmiddleware.OrgAndClientIP))
				}
				cfg.Reports.Register(rep)
			})
		}
		if cfg.Settings != nil {
			org.Get("/settings", cfg.Settings.GetSettings)
			org.Put("/settings", cfg.Settings.UpdateSettings)
		}
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func ready(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": status == http.StatusOK, "checks": results})
	}
}
