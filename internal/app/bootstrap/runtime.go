// Package bootstrap wires the stores and services shared by the API server and
// the digest worker.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/JimmysRanch/scruffy-butts-21-sub000/internal/config"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/notify"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/observability/metrics"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reporting"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/settings"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool opens and pings the records database.
func BuildPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildEmailSender returns SendGrid when an API key and sender are configured,
// otherwise a stub that only logs.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.SendGridAPIKey) == "" || strings.TrimSpace(cfg.SendGridFromEmail) == "" {
		logger.Warn("sendgrid not configured; digests will be logged only")
		return notify.NewStubEmailSender(logger)
	}
	return notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
}

// Reporting bundles the report stack built from one set of clients.
type Reporting struct {
	Records  *records.Repository
	Settings *settings.Store
	Service  *reporting.Service
	Metrics  *metrics.ReportMetrics
}

// BuildReporting wires the records repository, settings store, cache and
// report service. reg receives the report metrics; nil uses the default
// registerer.
func BuildReporting(cfg *appconfig.Config, db records.DB, redisClient *redis.Client, reg prometheus.Registerer, logger *logging.Logger) (*Reporting, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("bootstrap: database is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("bootstrap: redis is required for settings")
	}
	if logger == nil {
		logger = logging.Default()
	}

	repo := records.NewRepository(db)
	store := settings.NewStore(redisClient, cfg.DefaultTimezone)
	m := metrics.NewReportMetrics(reg)
	svc := reporting.NewService(repo, store, logger,
		reporting.WithCache(reporting.NewCache(redisClient, cfg.ReportCacheTTL)),
		reporting.WithMetrics(m),
	)
	return &Reporting{Records: repo, Settings: store, Service: svc, Metrics: m}, nil
}
