package reports

import (
	"sort"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
)

var (
	daysPerYear = decimal.NewFromInt(365)
	daysPerWeek = decimal.NewFromInt(7)
	sixty       = decimal.NewFromInt(60)
)

// LaborLine is one staff member's labor cost for the period.
type LaborLine struct {
	StaffID           string                    `json:"staff_id"`
	Name              string                    `json:"name"`
	Model             records.CompensationModel `json:"model"`
	AttributedRevenue decimal.Decimal           `json:"attributed_revenue"`
	Hours             decimal.Decimal           `json:"hours"`
	ComputedPay       decimal.Decimal           `json:"computed_pay"`
	Guarantee         decimal.Decimal           `json:"guarantee"`
	Total             decimal.Decimal           `json:"total"`
}

// MarginSummary is contribution margin after variable costs.
type MarginSummary struct {
	NetSales              decimal.Decimal `json:"net_sales"`
	COGS                  decimal.Decimal `json:"cogs"`
	ProcessingFees        decimal.Decimal `json:"processing_fees"`
	LaborCost             decimal.Decimal `json:"labor_cost"`
	ContributionMargin    decimal.Decimal `json:"contribution_margin"`
	ContributionMarginPct float64         `json:"contribution_margin_pct"`
	CostTableVersion      string          `json:"cost_table_version"`
	Labor                 []LaborLine     `json:"labor"`
}

// MarginInput collects what the margin calculator reads.
type MarginInput struct {
	// Appointments are the filtered appointments for the period.
	Appointments []records.Appointment
	Services     []records.Service
	Staff        []records.Staff
	// StaffIDs limits labor to these staff; empty means the whole roster.
	StaffIDs []string
	Revenue  RevenueSummary
	Window   Window
	Settings Settings
}

// CalculateMargin derives COGS, labor and contribution margin. Only completed
// appointments consume supplies or earn commission and hourly pay; salary and
// guarantees accrue for every in-scope staff member across the window.
func CalculateMargin(in MarginInput) MarginSummary {
	s := in.Settings.WithDefaults()

	categories := make(map[string]string, len(in.Services))
	for _, svc := range in.Services {
		categories[svc.ID] = svc.Category
	}

	type workload struct {
		revenue decimal.Decimal
		minutes int
	}
	work := make(map[string]*workload)

	cogs := decimal.Zero
	for _, a := range in.Appointments {
		if a.Status != records.StatusCompleted {
			continue
		}
		cogs = cogs.Add(s.Costs.UnitCost(categories[a.ServiceID]))
		if a.StaffID == "" {
			continue
		}
		w, ok := work[a.StaffID]
		if !ok {
			w = &workload{}
			work[a.StaffID] = w
		}
		w.revenue = w.revenue.Add(a.NetPrice())
		w.minutes += a.PlannedDuration
	}

	roster := make(map[string]records.Staff, len(in.Staff))
	for _, st := range in.Staff {
		if included(in.StaffIDs, st.ID) {
			roster[st.ID] = st
		}
	}
	// Appointments can reference staff missing from the roster; they are paid
	// on shop defaults.
	for id := range work {
		if _, ok := roster[id]; !ok && included(in.StaffIDs, id) {
			roster[id] = records.Staff{ID: id, Name: id}
		}
	}

	days := decimal.NewFromInt(int64(in.Window.Days()))
	lines := make([]LaborLine, 0, len(roster))
	labor := decimal.Zero
	for _, st := range roster {
		var w workload
		if wl, ok := work[st.ID]; ok {
			w = *wl
		}
		line := laborFor(st, w.revenue, w.minutes, days, s.Labor)
		labor = labor.Add(line.Total)
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].StaffID < lines[j].StaffID
	})

	net := in.Revenue.NetSales
	cm := net.Sub(cogs).Sub(in.Revenue.ProcessingFees).Sub(labor)
	return MarginSummary{
		NetSales:              net,
		COGS:                  cogs,
		ProcessingFees:        in.Revenue.ProcessingFees,
		LaborCost:             labor,
		ContributionMargin:    cm,
		ContributionMarginPct: ratioDec(cm, net),
		CostTableVersion:      s.Costs.Version,
		Labor:                 lines,
	}
}

func laborFor(st records.Staff, revenue decimal.Decimal, minutes int, days decimal.Decimal, defaults LaborConfig) LaborLine {
	comp := st.Compensation
	model := comp.Model
	if model == "" {
		model = defaults.DefaultModel
	}

	line := LaborLine{
		StaffID:           st.ID,
		Name:              st.Name,
		Model:             model,
		AttributedRevenue: revenue,
		Hours:             decimal.NewFromInt(int64(minutes)).Div(sixty),
	}

	switch model {
	case records.CompensationHourly:
		rate := defaults.DefaultHourlyRate
		if comp.HourlyRate != nil {
			rate = *comp.HourlyRate
		}
		line.ComputedPay = line.Hours.Mul(rate)
	case records.CompensationSalary:
		if comp.AnnualSalary != nil {
			line.ComputedPay = comp.AnnualSalary.Mul(days).Div(daysPerYear)
		}
	default:
		pct := defaults.CommissionPct()
		if comp.CommissionPct != nil {
			pct = *comp.CommissionPct
		}
		line.ComputedPay = revenue.Mul(decimal.NewFromFloat(pct)).Div(hundred)
	}

	pay := line.ComputedPay
	if g := comp.WeeklyGuarantee; g.Enabled && g.Amount.IsPositive() {
		line.Guarantee = g.Amount.Mul(days).Div(daysPerWeek)
		if g.PayoutMethod == records.PayoutBoth {
			pay = pay.Add(line.Guarantee)
		} else {
			pay = decimal.Max(pay, line.Guarantee)
		}
	}

	if defaults.EmployerBurdenPct > 0 {
		burden := decimal.NewFromFloat(defaults.EmployerBurdenPct).Div(hundred)
		pay = pay.Mul(decimal.NewFromInt(1).Add(burden))
	}

	line.ComputedPay = line.ComputedPay.Round(2)
	line.Guarantee = line.Guarantee.Round(2)
	line.Hours = line.Hours.Round(2)
	line.Total = pay.Round(2)
	return line
}
