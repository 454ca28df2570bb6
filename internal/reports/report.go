// Package reports is the grooming shop analytics engine. Every function is
// pure: it reads canonical records, settings and a reference time and never
// modifies its inputs, so identical inputs give identical reports.
package reports

import (
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
)

// Input is everything a report is computed from.
type Input struct {
	Snapshot   *records.Snapshot
	Settings   Settings
	Filters    Filters
	Now        time.Time
	Thresholds *Thresholds
}

// Report is the full computed reporting view. Field names and row order are
// stable for exporters.
type Report struct {
	OrgID        string             `json:"org_id"`
	DataVersion  string             `json:"data_version"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Filters      Filters            `json:"filters"`
	Window       Window             `json:"window"`
	PriorWindow  Window             `json:"prior_window"`
	KPIs         []KPIMetric        `json:"kpis"`
	Revenue      RevenueSummary     `json:"revenue"`
	Appointments AppointmentSummary `json:"appointments"`
	Margin       MarginSummary      `json:"margin"`
	Services     []ServiceRow       `json:"services"`
	Staff        []StaffRow         `json:"staff"`
	Retention    RetentionSummary   `json:"retention"`
	AtRisk       []LapsedCustomer   `json:"at_risk"`
	Insights     []Insight          `json:"insights"`
	Comparison   Comparison         `json:"comparison"`
}

// Build runs the whole pipeline for one snapshot.
func Build(in Input) *Report {
	snap := in.Snapshot
	if snap == nil {
		snap = &records.Snapshot{}
	}
	s := in.Settings.WithDefaults()
	loc := s.Location()
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	th := DefaultThresholds()
	if in.Thresholds != nil {
		th = *in.Thresholds
	}

	window := ResolveWindow(in.Filters.DateRange, now, s.WeekStart)
	prior := PriorWindow(window)

	apptIdx := newAppointmentIndex(snap.Appointments, loc)
	rebookIdx := newRebookIndex(snap.Appointments, loc)

	appts := filterAppointments(snap.Appointments, in.Filters, window, apptIdx)
	txns := filterTransactions(snap.Transactions, in.Filters, window, apptIdx)
	apptSummary := SummarizeAppointments(appts)
	revenue := CalculateRevenue(txns, apptSummary.Completed, s)

	priorAppts := filterAppointments(snap.Appointments, in.Filters, prior, apptIdx)
	priorTxns := filterTransactions(snap.Transactions, in.Filters, prior, apptIdx)
	priorRevenue := CalculateRevenue(priorTxns, SummarizeAppointments(priorAppts).Completed, s)
	comparison := ComparePeriods(revenue, priorRevenue)

	margin := CalculateMargin(MarginInput{
		Appointments: appts,
		Services:     snap.Services,
		Staff:        snap.Staff,
		StaffIDs:     in.Filters.StaffIDs,
		Revenue:      revenue,
		Window:       window,
		Settings:     s,
	})

	retention := calculateRetention(appts, rebookIdx, now, s)
	atRisk := LapsedCustomers(snap.Customers, snap.Appointments, now, s)
	retention.LapsedCount = len(atRisk)

	insights := EvaluateInsights(InsightInput{
		Revenue:      revenue,
		Comparison:   comparison,
		Appointments: apptSummary,
		Margin:       margin,
		Retention:    retention,
		Settings:     s,
	}, th)

	return &Report{
		OrgID:        snap.OrgID,
		DataVersion:  snap.Version,
		GeneratedAt:  now,
		Filters:      in.Filters,
		Window:       window,
		PriorWindow:  prior,
		KPIs:         BuildKPIs(KPIInput{Revenue: revenue, Appointments: apptSummary, Margin: margin, Retention: retention, Comparison: &comparison}),
		Revenue:      revenue,
		Appointments: apptSummary,
		Margin:       margin,
		Services:     ServiceBreakdown(appts, snap.Services),
		Staff:        staffBreakdown(appts, snap.Staff, rebookIdx, now, s),
		Retention:    retention,
		AtRisk:       atRisk,
		Insights:     insights,
		Comparison:   comparison,
	}
}
