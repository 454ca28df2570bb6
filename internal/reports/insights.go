package reports

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InsightType is the severity shown next to an insight.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

// Insight is one advisory message produced from the computed metrics.
type Insight struct {
	Rule    string      `json:"rule"`
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
	Action  string      `json:"action,omitempty"`
}

// Thresholds are the trigger points for the insight rules.
type Thresholds struct {
	RevenueDropPct  float64
	RevenueGainPct  float64
	NoShowRatePct   float64
	RebookRatePct   float64
	RebookMinSample int
	MarginPct       float64
}

// DefaultThresholds returns the standard trigger points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RevenueDropPct:  -10,
		RevenueGainPct:  15,
		NoShowRatePct:   15,
		RebookRatePct:   30,
		RebookMinSample: 10,
		MarginPct:       30,
	}
}

// InsightInput is the metric set the rules read.
type InsightInput struct {
	Revenue      RevenueSummary
	Comparison   Comparison
	Appointments AppointmentSummary
	Margin       MarginSummary
	Retention    RetentionSummary
	Settings     Settings
}

type insightRule func(in InsightInput, th Thresholds) (Insight, bool)

// insightRules run in order and independently; any number may fire.
var insightRules = []insightRule{
	revenueDown,
	revenueUp,
	highNoShows,
	lowRebooking,
	thinMargin,
	lapsedWinBack,
}

// EvaluateInsights runs every rule against the metrics and returns the ones
// that fired, in rule order.
func EvaluateInsights(in InsightInput, th Thresholds) []Insight {
	in.Settings = in.Settings.WithDefaults()
	out := make([]Insight, 0, len(insightRules))
	for _, rule := range insightRules {
		if ins, ok := rule(in, th); ok {
			out = append(out, ins)
		}
	}
	return out
}

func revenueDown(in InsightInput, th Thresholds) (Insight, bool) {
	delta := in.Comparison.NetSalesDelta
	if delta >= th.RevenueDropPct {
		return Insight{}, false
	}
	return Insight{
		Rule:    "revenue_down",
		Type:    InsightWarning,
		Message: fmt.Sprintf("Revenue down %.1f%% vs prior period.", math.Abs(delta)),
		Action:  "Compare bookings and discounts against the prior period to find the gap.",
	}, true
}

func revenueUp(in InsightInput, th Thresholds) (Insight, bool) {
	delta := in.Comparison.NetSalesDelta
	if delta <= th.RevenueGainPct {
		return Insight{}, false
	}
	return Insight{
		Rule:    "revenue_up",
		Type:    InsightSuccess,
		Message: fmt.Sprintf("Revenue up %.1f%% vs prior period.", delta),
		Action:  "Check which services and staff drove the increase.",
	}, true
}

func highNoShows(in InsightInput, th Thresholds) (Insight, bool) {
	rate := in.Appointments.NoShowRate
	if rate <= th.NoShowRatePct {
		return Insight{}, false
	}
	return Insight{
		Rule:    "high_no_shows",
		Type:    InsightWarning,
		Message: fmt.Sprintf("No-show rate is %.1f%% (%d of %d appointments).", rate, in.Appointments.NoShows, in.Appointments.Total),
		Action:  "Send appointment reminders and consider deposits for repeat no-shows.",
	}, true
}

func lowRebooking(in InsightInput, th Thresholds) (Insight, bool) {
	rate, ok := in.Retention.Rate(Rebook7d)
	if !ok || in.Appointments.Total <= th.RebookMinSample || rate.Rate >= th.RebookRatePct {
		return Insight{}, false
	}
	return Insight{
		Rule:    "low_rebooking",
		Type:    InsightInfo,
		Message: fmt.Sprintf("Only %.1f%% of visits rebooked within 7 days.", rate.Rate),
		Action:  "Offer to book the next groom at checkout.",
	}, true
}

func thinMargin(in InsightInput, th Thresholds) (Insight, bool) {
	if !in.Revenue.NetSales.IsPositive() || in.Margin.ContributionMarginPct >= th.MarginPct {
		return Insight{}, false
	}
	return Insight{
		Rule:    "thin_margin",
		Type:    InsightWarning,
		Message: fmt.Sprintf("Contribution margin is %.1f%% of net sales.", in.Margin.ContributionMarginPct),
		Action:  "Review labor cost and supply cost against service pricing.",
	}, true
}

func lapsedWinBack(in InsightInput, _ Thresholds) (Insight, bool) {
	count := in.Retention.LapsedCount
	if count <= 0 {
		return Insight{}, false
	}
	noun := "customers have"
	if count == 1 {
		noun = "customer has"
	}
	return Insight{
		Rule:    "lapsed_customers",
		Type:    InsightInfo,
		Message: fmt.Sprintf("%d %s not visited in over %d days.", count, noun, in.Retention.LapsedThresholdDays),
		Action:  strings.ReplaceAll(in.Settings.Messaging.WinBackTemplate, "{count}", strconv.Itoa(count)),
	}, true
}
