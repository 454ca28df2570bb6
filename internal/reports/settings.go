package reports

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
)

// FeeBase selects what the card processor charges its percentage on.
type FeeBase string

const (
	FeeBaseSubtotal FeeBase = "subtotal"
	FeeBaseTotal    FeeBase = "total"
)

// ProcessorConfig models payment processing cost. Nil fields take defaults so a
// zero fee (cash-only shop) can still be stored explicitly.
type ProcessorConfig struct {
	FeeRatePct    *float64         `json:"fee_rate_pct,omitempty"`
	FeeFixed      *decimal.Decimal `json:"fee_fixed,omitempty"`
	FeeBasePolicy FeeBase          `json:"fee_base_policy,omitempty"`
}

// TipsConfig controls how tips show up in revenue.
type TipsConfig struct {
	IncludeInGross bool `json:"include_in_gross"`
}

// LaborConfig holds shop-wide pay defaults used when a staff record is silent.
// A nil DefaultCommissionPct takes the default; an explicit 0 is kept.
type LaborConfig struct {
	DefaultModel         records.CompensationModel `json:"default_model,omitempty"`
	DefaultCommissionPct *float64                  `json:"default_commission_pct,omitempty"`
	DefaultHourlyRate    decimal.Decimal           `json:"default_hourly_rate"`
	EmployerBurdenPct    float64                   `json:"employer_burden_pct,omitempty"`
}

// WindowMode decides whether rebook windows overlap.
type WindowMode string

const (
	// WindowCumulative counts a rebooking in every window it fits: (0, w].
	WindowCumulative WindowMode = "cumulative"
	// WindowDisjoint counts a rebooking only in the first window it fits: (previous w, w].
	WindowDisjoint WindowMode = "disjoint"
)

// RebookWindowFlags switches individual rebook windows on or off.
type RebookWindowFlags struct {
	Within24h bool `json:"within_24h"`
	Within7d  bool `json:"within_7d"`
	Within30d bool `json:"within_30d"`
}

// RetentionConfig configures rebooking and lapsed-customer detection.
type RetentionConfig struct {
	RebookWindows       *RebookWindowFlags `json:"rebook_windows,omitempty"`
	WindowMode          WindowMode         `json:"window_mode,omitempty"`
	LapsedThresholdDays int                `json:"lapsed_threshold_days,omitempty"`
}

// AttributionConfig sets how long after a visit a booking is credited to it.
// WindowDays also drives the per-staff rebook rate.
type AttributionConfig struct {
	WindowDays              int `json:"window_days,omitempty"`
	ConfirmationWindowHours int `json:"confirmation_window_hours,omitempty"`
}

// MessagingConfig controls outbound insight digests.
type MessagingConfig struct {
	DigestEnabled    bool     `json:"digest_enabled"`
	DigestRecipients []string `json:"digest_recipients,omitempty"`
	// WinBackTemplate is the lapsed-customer action text; {count} is replaced
	// with the number of lapsed customers.
	WinBackTemplate string `json:"win_back_template,omitempty"`
}

// CostConfig is the versioned per-category supply cost table used for COGS.
type CostConfig struct {
	Version          string                     `json:"version,omitempty"`
	CategoryUnitCost map[string]decimal.Decimal `json:"category_unit_cost,omitempty"`
	DefaultUnitCost  decimal.Decimal            `json:"default_unit_cost"`
}

// UnitCost returns the supply cost of one appointment in the category. Table
// keys are lowercase.
func (c CostConfig) UnitCost(category string) decimal.Decimal {
	if cost, ok := c.CategoryUnitCost[strings.ToLower(strings.TrimSpace(category))]; ok {
		return cost
	}
	return c.DefaultUnitCost
}

// CommissionPct is the shop default commission, or DefaultCommissionPct when unset.
func (l LaborConfig) CommissionPct() float64 {
	if l.DefaultCommissionPct == nil {
		return DefaultCommissionPct
	}
	return *l.DefaultCommissionPct
}

// Settings is the per-shop configuration the engine reads.
type Settings struct {
	Processor   ProcessorConfig   `json:"processor"`
	Tips        TipsConfig        `json:"tips"`
	Labor       LaborConfig       `json:"labor"`
	Retention   RetentionConfig   `json:"retention"`
	Attribution AttributionConfig `json:"attribution"`
	Messaging   MessagingConfig   `json:"messaging"`
	Costs       CostConfig        `json:"costs"`
	Timezone    string            `json:"timezone,omitempty"`
	WeekStart   time.Weekday      `json:"week_start"`
}

const (
	DefaultFeeRatePct           = 2.9
	DefaultCommissionPct        = 40.0
	DefaultLapsedThresholdDays  = 90
	DefaultAttributionWindow    = 7
	DefaultConfirmationWindow   = 24
	DefaultTimezone             = "America/New_York"
	DefaultCostTableVersion     = "unversioned"
	DefaultWinBackTemplate      = "Send a win-back offer to {count} lapsed customers."
	defaultFeeFixedCents        = 30
	defaultRebookWindowsEnabled = true
)

// DefaultSettings returns the documented fallback configuration.
func DefaultSettings() Settings {
	return Settings{}.WithDefaults()
}

// WithDefaults returns a copy with every missing value filled in. The receiver
// is not modified.
func (s Settings) WithDefaults() Settings {
	out := s
	if out.Processor.FeeRatePct == nil {
		rate := DefaultFeeRatePct
		out.Processor.FeeRatePct = &rate
	}
	if out.Processor.FeeFixed == nil {
		fixed := records.Cents(defaultFeeFixedCents)
		out.Processor.FeeFixed = &fixed
	}
	if out.Processor.FeeBasePolicy != FeeBaseTotal {
		out.Processor.FeeBasePolicy = FeeBaseSubtotal
	}

	switch out.Labor.DefaultModel {
	case records.CompensationCommission, records.CompensationHourly, records.CompensationSalary:
	default:
		out.Labor.DefaultModel = records.CompensationCommission
	}
	pct := out.Labor.CommissionPct()
	out.Labor.DefaultCommissionPct = &pct

	if out.Retention.RebookWindows == nil {
		out.Retention.RebookWindows = &RebookWindowFlags{
			Within24h: defaultRebookWindowsEnabled,
			Within7d:  defaultRebookWindowsEnabled,
			Within30d: defaultRebookWindowsEnabled,
		}
	} else {
		flags := *out.Retention.RebookWindows
		out.Retention.RebookWindows = &flags
	}
	if out.Retention.WindowMode != WindowDisjoint {
		out.Retention.WindowMode = WindowCumulative
	}
	if out.Retention.LapsedThresholdDays <= 0 {
		out.Retention.LapsedThresholdDays = DefaultLapsedThresholdDays
	}

	if out.Attribution.WindowDays <= 0 {
		out.Attribution.WindowDays = DefaultAttributionWindow
	}
	if out.Attribution.ConfirmationWindowHours <= 0 {
		out.Attribution.ConfirmationWindowHours = DefaultConfirmationWindow
	}

	if out.Messaging.WinBackTemplate == "" {
		out.Messaging.WinBackTemplate = DefaultWinBackTemplate
	}
	if len(out.Messaging.DigestRecipients) > 0 {
		out.Messaging.DigestRecipients = append([]string(nil), out.Messaging.DigestRecipients...)
	}

	if out.Costs.Version == "" {
		out.Costs.Version = DefaultCostTableVersion
	}
	if len(s.Costs.CategoryUnitCost) > 0 {
		table := make(map[string]decimal.Decimal, len(s.Costs.CategoryUnitCost))
		for k, v := range s.Costs.CategoryUnitCost {
			table[strings.ToLower(strings.TrimSpace(k))] = v
		}
		out.Costs.CategoryUnitCost = table
	}

	if out.Timezone == "" {
		out.Timezone = DefaultTimezone
	}
	if out.WeekStart < time.Sunday || out.WeekStart > time.Saturday {
		out.WeekStart = time.Sunday
	}
	return out
}

// Location resolves the shop timezone, falling back to UTC when it is unknown.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
