// Package digest emails each shop's report insights on a schedule.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/notify"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/observability/metrics"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/pkg/logging"
	"github.com/google/uuid"
)

// OrgLister enumerates the orgs to consider each run.
type OrgLister interface {
	ListOrgIDs(ctx context.Context) ([]string, error)
}

// ReportBuilder produces a report for an org.
type ReportBuilder interface {
	Report(ctx context.Context, orgID string, filters reports.Filters) (*reports.Report, error)
}

// SettingsProvider returns an org's settings, including digest recipients.
type SettingsProvider interface {
	Get(ctx context.Context, orgID string) (reports.Settings, error)
}

// Ledger records which recipients got an org's digest on which day so a
// restart, a short interval or a partial failure does not send twice.
type Ledger interface {
	Claim(ctx context.Context, orgID, day, recipient string) (bool, error)
	Release(ctx context.Context, orgID, day, recipient string) error
}

// Worker sends insight digests.
type Worker struct {
	orgs     OrgLister
	reports  ReportBuilder
	settings SettingsProvider
	sender   notify.EmailSender
	ledger   Ledger
	metrics  *metrics.ReportMetrics
	logger   *logging.Logger
	interval time.Duration
	preset   reports.Preset
	now      func() time.Time
}

// NewWorker creates a digest worker with a daily interval and the last7 preset.
func NewWorker(orgs OrgLister, builder ReportBuilder, settings SettingsProvider, sender notify.EmailSender, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		orgs:     orgs,
		reports:  builder,
		settings: settings,
		sender:   sender,
		logger:   logger,
		interval: 24 * time.Hour,
		preset:   reports.PresetLast7,
		now:      time.Now,
	}
}

// WithInterval sets the time between runs. Non-positive values are ignored.
func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

// WithPreset sets the reporting period. Unknown presets are ignored.
func (w *Worker) WithPreset(raw string) *Worker {
	if p, ok := reports.ParsePreset(raw); ok && p != reports.PresetCustom {
		w.preset = p
	}
	return w
}

// WithLedger enables per-day dedupe of sends.
func (w *Worker) WithLedger(l Ledger) *Worker {
	w.ledger = l
	return w
}

// WithMetrics records one digest outcome per org per run.
func (w *Worker) WithMetrics(m *metrics.ReportMetrics) *Worker {
	w.metrics = m
	return w
}

func (w *Worker) withClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Run sends digests immediately and then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.runAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runAndLog(ctx)
		}
	}
}

func (w *Worker) runAndLog(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("digest run failed", "error", err)
	}
}

// RunOnce sends one digest per eligible org and returns how many orgs were
// emailed. Failures for one org do not stop the others.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if w.orgs == nil || w.reports == nil || w.settings == nil || w.sender == nil {
		return 0, errors.New("digest: worker not configured")
	}
	runID := uuid.New().String()
	orgIDs, err := w.orgs.ListOrgIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("digest: list orgs: %w", err)
	}

	sent := 0
	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		status, err := w.sendOrg(ctx, orgID)
		w.metrics.ObserveDigest(status)
		switch {
		case err != nil:
			w.logger.Error("digest failed", "run_id", runID, "org_id", orgID, "error", err)
		case status == "sent":
			sent++
		}
	}
	w.logger.Info("digest run complete", "run_id", runID, "orgs", len(orgIDs), "sent", sent)
	return sent, nil
}

func (w *Worker) sendOrg(ctx context.Context, orgID string) (string, error) {
	settings, err := w.settings.Get(ctx, orgID)
	if err != nil {
		return "error", fmt.Errorf("load settings: %w", err)
	}
	if !settings.Messaging.DigestEnabled || len(settings.Messaging.DigestRecipients) == 0 {
		return "disabled", nil
	}

	day := w.now().In(settings.WithDefaults().Location()).Format("2006-01-02")
	pending, err := w.claim(ctx, orgID, day, settings.Messaging.DigestRecipients)
	if err != nil {
		return "error", err
	}
	if len(pending) == 0 {
		return "duplicate", nil
	}

	report, err := w.reports.Report(ctx, orgID, reports.Filters{DateRange: reports.DateRange{Preset: w.preset}})
	if err != nil {
		w.release(ctx, orgID, day, pending...)
		return "error", fmt.Errorf("build report: %w", err)
	}
	if len(report.Insights) == 0 {
		w.logger.Debug("digest skipped: no insights", "org_id", orgID)
		return "empty", nil
	}

	msg := Compose(report, settings.Location())
	var errs []error
	for _, to := range pending {
		msg.To = to
		if err := w.sender.Send(ctx, msg); err != nil {
			w.release(ctx, orgID, day, to)
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	if len(errs) > 0 {
		return "error", errors.Join(errs...)
	}
	w.logger.Info("digest sent", "org_id", orgID, "recipients", len(pending), "insights", len(report.Insights))
	return "sent", nil
}

// claim returns the recipients that have not had today's digest yet. Without a
// ledger every recipient is pending.
func (w *Worker) claim(ctx context.Context, orgID, day string, recipients []string) ([]string, error) {
	if w.ledger == nil {
		return recipients, nil
	}
	var pending []string
	for _, to := range recipients {
		ok, err := w.ledger.Claim(ctx, orgID, day, to)
		if err != nil {
			w.release(ctx, orgID, day, pending...)
			return nil, fmt.Errorf("claim digest: %w", err)
		}
		if ok {
			pending = append(pending, to)
		}
	}
	return pending, nil
}

func (w *Worker) release(ctx context.Context, orgID, day string, recipients ...string) {
	if w.ledger == nil {
		return
	}
	for _, to := range recipients {
		if err := w.ledger.Release(ctx, orgID, day, to); err != nil {
			w.logger.Warn("digest claim release failed", "org_id", orgID, "recipient", to, "error", err)
		}
	}
}
