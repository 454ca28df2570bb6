package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/app/bootstrap"
	appconfig "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/config"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/digest"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for settings and the digest ledger", "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer redisClient.Close()

	reg := prometheus.NewRegistry()
	stack, err := bootstrap.BuildReporting(cfg, pool, redisClient, reg, logger)
	if err != nil {
		logger.Error("failed to wire reporting", "error", err)
		os.Exit(1)
	}

	worker := digest.NewWorker(stack.Records, stack.Service, stack.Settings, bootstrap.BuildEmailSender(cfg, logger), logger).
		WithInterval(cfg.DigestInterval).
		WithPreset(cfg.DigestPreset).
		WithLedger(digest.NewRedisLedger(redisClient)).
		WithMetrics(stack.Metrics)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("digest worker started",
		"interval", cfg.DigestInterval.String(),
		"preset", cfg.DigestPreset,
	)
	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("digest worker stopped")
}
