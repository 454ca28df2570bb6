package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/notify"
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orgList []string

func (o orgList) ListOrgIDs(context.Context) ([]string, error) { return o, nil }

type settingsMap map[string]reports.Settings

func (m settingsMap) Get(_ context.Context, orgID string) (reports.Settings, error) {
	s, ok := m[orgID]
	if !ok {
		return reports.Settings{}, errors.New("no settings")
	}
	return s, nil
}

type fakeBuilder struct {
	reports map[string]*reports.Report
	filters []reports.Filters
}

func (f *fakeBuilder) Report(_ context.Context, orgID string, filters reports.Filters) (*reports.Report, error) {
	f.filters = append(f.filters, filters)
	r, ok := f.reports[orgID]
	if !ok {
		return nil, errors.New("build failed")
	}
	return r, nil
}

type failingSender struct{}

func (failingSender) Send(context.Context, notify.EmailMessage) error { return errors.New("sendgrid 500") }

// bouncingSender fails the first send to each address in bounce, then delivers.
type bouncingSender struct {
	*notify.StubEmailSender
	bounce map[string]bool
}

func (b *bouncingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	if b.bounce[msg.To] {
		b.bounce[msg.To] = false
		return errors.New("mailbox unavailable")
	}
	return b.StubEmailSender.Send(ctx, msg)
}

var digestNow = time.Date(2025, 3, 20, 13, 0, 0, 0, time.UTC)

func insightReport() *reports.Report {
	return &reports.Report{
		Window: reports.Window{
			Start: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 20, 23, 59, 59, 0, time.UTC),
		},
		Revenue:    reports.RevenueSummary{NetSales: decimal.RequireFromString("1500")},
		Comparison: reports.Comparison{NetSalesDelta: 50},
		Insights: []reports.Insight{
			{Rule: "revenue_up", Type: reports.InsightSuccess, Message: "Revenue up 50.0% vs prior period."},
			{Rule: "lapsed_customers", Type: reports.InsightInfo, Message: "3 customers have not visited in over 90 days.", Action: "Send a win-back offer to 3 lapsed customers."},
		},
	}
}

func enabled(recipients ...string) reports.Settings {
	return reports.Settings{
		Timezone:  "UTC",
		Messaging: reports.MessagingConfig{DigestEnabled: true, DigestRecipients: recipients},
	}
}

func TestRunOnceSendsToEnabledOrgs(t *testing.T) {
	sender := notify.NewStubEmailSender(nil)
	builder := &fakeBuilder{reports: map[string]*reports.Report{
		"org-1": insightReport(),
		"org-2": insightReport(),
		"org-3": {},
	}}
	settings := settingsMap{
		"org-1": enabled("owner@example.com", "manager@example.com"),
		"org-2": {Timezone: "UTC"},
		"org-3": enabled("quiet@example.com"),
	}

	w := NewWorker(orgList{"org-1", "org-2", "org-3", "org-4"}, builder, settings, sender, nil).
		WithPreset("thisMonth").
		withClock(func() time.Time { return digestNow })

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := sender.Sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, "owner@example.com", msgs[0].To)
	assert.Equal(t, "manager@example.com", msgs[1].To)
	assert.Equal(t, "2 shop insights for Mar 14 to Mar 20, 2025", msgs[0].Subject)
	assert.Equal(t, digestCategory, msgs[0].Category)

	for _, f := range builder.filters {
		assert.Equal(t, reports.PresetThisMonth, f.DateRange.Preset)
	}
}

func TestRunOnceLedgerPreventsDuplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := notify.NewStubEmailSender(nil)
	w := NewWorker(orgList{"org-1"}, &fakeBuilder{reports: map[string]*reports.Report{"org-1": insightReport()}},
		settingsMap{"org-1": enabled("owner@example.com")}, sender, nil).
		WithLedger(NewRedisLedger(client)).
		withClock(func() time.Time { return digestNow })

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, mr.Exists("digest:sent:org-1:2025-03-20:owner@example.com"))

	sent, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, sender.Sent(), 1)
}

func TestRunOnceReleasesClaimOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	w := NewWorker(orgList{"org-1"}, &fakeBuilder{reports: map[string]*reports.Report{"org-1": insightReport()}},
		settingsMap{"org-1": enabled("owner@example.com")}, failingSender{}, nil).
		WithLedger(NewRedisLedger(client)).
		withClock(func() time.Time { return digestNow })

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.False(t, mr.Exists("digest:sent:org-1:2025-03-20:owner@example.com"), "failed digests can retry")
}

func TestRunOnceRetriesOnlyFailedRecipients(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := &bouncingSender{StubEmailSender: notify.NewStubEmailSender(nil), bounce: map[string]bool{"b@shop.test": true}}
	w := NewWorker(orgList{"org-1"}, &fakeBuilder{reports: map[string]*reports.Report{"org-1": insightReport()}},
		settingsMap{"org-1": enabled("a@shop.test", "b@shop.test")}, sender, nil).
		WithLedger(NewRedisLedger(client)).
		withClock(func() time.Time { return digestNow })

	sent, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.True(t, mr.Exists("digest:sent:org-1:2025-03-20:a@shop.test"))
	assert.False(t, mr.Exists("digest:sent:org-1:2025-03-20:b@shop.test"))

	sent, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var to []string
	for _, msg := range sender.Sent() {
		to = append(to, msg.To)
	}
	assert.Equal(t, []string{"a@shop.test", "b@shop.test"}, to, "each recipient gets one digest per day")

	sent, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, sender.Sent(), 2)
}

func TestRunOnceReleasesClaimsWhenReportFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	w := NewWorker(orgList{"org-1"}, &fakeBuilder{}, settingsMap{"org-1": enabled("a@shop.test", "b@shop.test")},
		notify.NewStubEmailSender(nil), nil).
		WithLedger(NewRedisLedger(client)).
		withClock(func() time.Time { return digestNow })

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())
}

func TestRunOnceRequiresDependencies(t *testing.T) {
	_, err := NewWorker(nil, nil, nil, nil, nil).RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	sender := notify.NewStubEmailSender(nil)
	w := NewWorker(orgList{"org-1"}, &fakeBuilder{reports: map[string]*reports.Report{"org-1": insightReport()}},
		settingsMap{"org-1": enabled("owner@example.com")}, sender, nil).
		WithInterval(time.Hour).
		withClock(func() time.Time { return digestNow })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWithPresetIgnoresInvalid(t *testing.T) {
	w := NewWorker(nil, nil, nil, nil, nil)
	w.WithPreset("fortnight").WithPreset("custom")
	assert.Equal(t, reports.PresetLast7, w.preset)
	w.WithInterval(-time.Second)
	assert.Equal(t, 24*time.Hour, w.interval)
}

func TestCompose(t *testing.T) {
	r := insightReport()
	r.Insights[0].Message = "Revenue <up> 50.0% vs prior period."

	msg := Compose(r, nil)
	assert.Contains(t, msg.Body, "Net sales: $1500.00 (+50.0% vs prior period)")
	assert.Contains(t, msg.Body, "- [info] 3 customers have not visited in over 90 days.")
	assert.Contains(t, msg.Body, "  Next step: Send a win-back offer to 3 lapsed customers.")
	assert.Contains(t, msg.HTML, "Revenue &lt;up&gt; 50.0%")
	assert.Empty(t, msg.To)
}
