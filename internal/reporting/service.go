// Package reporting serves analytics reports: it loads an org's records and
// settings, runs the report engine and memoizes the result.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/observability/metrics"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SnapshotLoader reads an org's canonical records. records.Repository
// implements it.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, orgID string) (*records.Snapshot, error)
	DataVersion(ctx context.Context, orgID string) (string, error)
}

// SettingsProvider returns the effective settings for an org.
type SettingsProvider interface {
	Get(ctx context.Context, orgID string) (reports.Settings, error)
}

// ReportCache memoizes reports by content key. Get returns nil on a miss.
type ReportCache interface {
	Get(ctx context.Context, key string) (*reports.Report, error)
	Set(ctx context.Context, key string, r *reports.Report) error
}

// Service builds reports for orgs.
type Service struct {
	loader     SnapshotLoader
	settings   SettingsProvider
	cache      ReportCache
	metrics    *metrics.ReportMetrics
	thresholds *reports.Thresholds
	tracer     trace.Tracer
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables report memoization.
func WithCache(c ReportCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records build and cache metrics.
func WithMetrics(m *metrics.ReportMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithThresholds overrides the insight thresholds.
func WithThresholds(t reports.Thresholds) Option {
	return func(s *Service) { s.thresholds = &t }
}

// WithClock overrides the reference time. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a reporting service.
func NewService(loader SnapshotLoader, settings SettingsProvider, logger *logging.Logger, opts ...Option) *Service {
	if loader == nil {
		panic("reporting: snapshot loader required")
	}
	if settings == nil {
		panic("reporting: settings provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		loader:   loader,
		settings: settings,
		tracer:   otel.Tracer("groomer.internal.reporting"),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report returns the report for the org and filters, from cache when the
// records, settings and filters are unchanged.
func (s *Service) Report(ctx context.Context, orgID string, filters reports.Filters) (*reports.Report, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, records.ErrOrgRequired
	}

	ctx, span := s.tracer.Start(ctx, "reporting.report")
	defer span.End()
	preset := string(filters.DateRange.Preset)
	span.SetAttributes(
		attribute.String("org_id", orgID),
		attribute.String("preset", preset),
	)

	started := time.Now()
	r, cached, err := s.report(ctx, orgID, filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveBuild(preset, "error", time.Since(started).Seconds())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cached", cached), attribute.Int("insights", len(r.Insights)))
	if !cached {
		s.metrics.ObserveBuild(preset, "ok", time.Since(started).Seconds())
		for _, in := range r.Insights {
			s.metrics.ObserveInsight(string(in.Type), in.Rule)
		}
	}
	return r, nil
}

func (s *Service) report(ctx context.Context, orgID string, filters reports.Filters) (*reports.Report, bool, error) {
	settings, err := s.settings.Get(ctx, orgID)
	if err != nil {
		return nil, false, fmt.Errorf("reporting: load settings: %w", err)
	}
	now := s.now().In(settings.WithDefaults().Location())

	var key string
	if s.cache != nil {
		key, err = s.lookupKey(ctx, orgID, settings, filters, now)
		if err != nil {
			s.logger.Warn("report cache key unavailable", "org_id", orgID, "error", err)
		} else if r, err := s.cache.Get(ctx, key); err != nil {
			s.metrics.ObserveCache("error")
			s.logger.Warn("report cache read failed", "org_id", orgID, "error", err)
		} else if r != nil {
			s.metrics.ObserveCache("hit")
			return r, true, nil
		} else {
			s.metrics.ObserveCache("miss")
		}
	}

	snap, err := s.loader.LoadSnapshot(ctx, orgID)
	if err != nil {
		return nil, false, fmt.Errorf("reporting: load snapshot: %w", err)
	}

	r := reports.Build(reports.Input{
		Snapshot:   snap,
		Settings:   settings,
		Filters:    filters,
		Now:        now,
		Thresholds: s.thresholds,
	})

	if key != "" {
		if err := s.cache.Set(ctx, key, r); err != nil {
			s.logger.Warn("report cache write failed", "org_id", orgID, "error", err)
		}
	}
	s.logger.Debug("report built",
		"org_id", orgID,
		"preset", string(filters.DateRange.Preset),
		"data_version", r.DataVersion,
		"insights", len(r.Insights),
	)
	return r, false, nil
}

func (s *Service) lookupKey(ctx context.Context, orgID string, settings reports.Settings, filters reports.Filters, now time.Time) (string, error) {
	version, err := s.loader.DataVersion(ctx, orgID)
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", errors.New("reporting: empty data version")
	}
	return cacheKey(orgID, version, settings, filters, now.Format("2006-01-02"))
}
