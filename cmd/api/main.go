package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/api/router"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/app/bootstrap"
	appconfig "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/config"
	httpmiddleware "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/http/middleware"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reporting"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/settings"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reports API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for settings and the report cache", "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer redisClient.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Close()

	handler, err := buildHandler(cfg, pool, redisClient, reg, limiter, logger)
	if err != nil {
		logger.Error("failed to wire api", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// database is the records store plus a health probe. pgxpool.Pool satisfies it.
type database interface {
	records.DB
	Ping(ctx context.Context) error
}

// buildHandler wires the report stack onto the router.
func buildHandler(cfg *appconfig.Config, db database, redisClient *redis.Client, reg *prometheus.Registry, limiter *httpmiddleware.RateLimiter, logger *logging.Logger) (http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("api: database is required")
	}
	stack, err := bootstrap.BuildReporting(cfg, db, redisClient, reg, logger)
	if err != nil {
		return nil, err
	}
	return router.New(&router.Config{
		Logger:             logger,
		Reports:            reporting.NewHandler(stack.Service, logger),
		Settings:           settings.NewHandler(stack.Settings, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		ReadyChecks: map[string]router.Check{
			"postgres": db.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}), nil
}
