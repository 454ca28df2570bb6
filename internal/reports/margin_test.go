package reports

import (
	"testing"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekWindow() Window {
	return Window{Start: day(2025, 3, 10), End: dayEnd(2025, 3, 16)}
}

func staffAppt(id, staff, price string, minutes int) records.Appointment {
	a := appt(id, "c-"+id, "2025-03-12", records.StatusCompleted, price)
	a.StaffID = staff
	a.PlannedDuration = minutes
	return a
}

func guaranteedGroomer(payout records.GuaranteePayout) records.Staff {
	return records.Staff{
		ID:   "s1",
		Name: "Riley",
		Compensation: records.Compensation{
			Model:         records.CompensationCommission,
			CommissionPct: ptr(40.0),
			WeeklyGuarantee: records.WeeklyGuarantee{
				Enabled:      true,
				Amount:       money("900"),
				PayoutMethod: payout,
			},
		},
	}
}

func TestCalculateMarginWeeklyGuaranteeHigher(t *testing.T) {
	appts := []records.Appointment{staffAppt("a1", "s1", "1000", 120), staffAppt("a2", "s1", "750", 90)}

	m := CalculateMargin(MarginInput{
		Appointments: appts,
		Staff:        []records.Staff{guaranteedGroomer(records.PayoutHigher)},
		Revenue:      RevenueSummary{NetSales: money("1750")},
		Window:       weekWindow(),
		Settings:     utcSettings(),
	})

	require.Len(t, m.Labor, 1)
	assertMoney(t, "700", m.Labor[0].ComputedPay)
	assertMoney(t, "900", m.Labor[0].Guarantee)
	assertMoney(t, "900", m.Labor[0].Total)
	assertMoney(t, "900", m.LaborCost)
}

func TestCalculateMarginWeeklyGuaranteeBoth(t *testing.T) {
	appts := []records.Appointment{staffAppt("a1", "s1", "1750", 120)}

	m := CalculateMargin(MarginInput{
		Appointments: appts,
		Staff:        []records.Staff{guaranteedGroomer(records.PayoutBoth)},
		Revenue:      RevenueSummary{NetSales: money("1750")},
		Window:       weekWindow(),
		Settings:     utcSettings(),
	})
	assertMoney(t, "1600", m.LaborCost)
}

func TestCalculateMarginGuaranteeProratedToWindow(t *testing.T) {
	m := CalculateMargin(MarginInput{
		Staff:    []records.Staff{guaranteedGroomer(records.PayoutHigher)},
		Window:   Window{Start: day(2025, 3, 1), End: dayEnd(2025, 3, 14)},
		Settings: utcSettings(),
	})
	assertMoney(t, "1800", m.LaborCost)
}

func TestCalculateMarginPayModels(t *testing.T) {
	staff := []records.Staff{
		{ID: "s2", Name: "Alex", Compensation: records.Compensation{Model: records.CompensationHourly, HourlyRate: ptr(money("20"))}},
		{ID: "s3", Name: "Sam", Compensation: records.Compensation{Model: records.CompensationSalary, AnnualSalary: ptr(money("36500"))}},
		{ID: "s4", Name: "Jo"},
	}
	appts := []records.Appointment{
		staffAppt("a1", "s2", "80", 90),
		staffAppt("a2", "s2", "40", 30),
		staffAppt("a3", "s4", "100", 60),
	}
	cancelled := staffAppt("a4", "s2", "80", 120)
	cancelled.Status = records.StatusCancelled
	appts = append(appts, cancelled)

	settings := utcSettings()
	settings.Labor.EmployerBurdenPct = 10

	m := CalculateMargin(MarginInput{
		Appointments: appts,
		Staff:        staff,
		Revenue:      RevenueSummary{NetSales: money("220")},
		Window:       weekWindow(),
		Settings:     settings,
	})

	require.Len(t, m.Labor, 3)
	byID := map[string]LaborLine{}
	for _, l := range m.Labor {
		byID[l.StaffID] = l
	}
	assertMoney(t, "2", byID["s2"].Hours)
	assertMoney(t, "44", byID["s2"].Total)
	assertMoney(t, "770", byID["s3"].Total)
	assertMoney(t, "44", byID["s4"].Total)
	assert.Equal(t, records.CompensationCommission, byID["s4"].Model, "silent staff record uses the shop default")
	assertMoney(t, "858", m.LaborCost)

	assert.Equal(t, []string{"Alex", "Jo", "Sam"}, []string{m.Labor[0].Name, m.Labor[1].Name, m.Labor[2].Name})
}

func TestCalculateMarginZeroDefaultCommission(t *testing.T) {
	settings := utcSettings()
	settings.Labor.DefaultCommissionPct = ptr(0.0)

	m := CalculateMargin(MarginInput{
		Appointments: []records.Appointment{staffAppt("a1", "s4", "100", 60)},
		Staff:        []records.Staff{{ID: "s4", Name: "Jo"}},
		Revenue:      RevenueSummary{NetSales: money("100")},
		Window:       weekWindow(),
		Settings:     settings,
	})

	require.Len(t, m.Labor, 1)
	assertMoney(t, "0", m.Labor[0].Total)
	assertMoney(t, "0", m.LaborCost)
}

func TestCalculateMarginStaffScope(t *testing.T) {
	staff := []records.Staff{
		{ID: "s1", Name: "Riley"},
		{ID: "s2", Name: "Alex", Compensation: records.Compensation{Model: records.CompensationSalary, AnnualSalary: ptr(money("36500"))}},
	}
	appts := []records.Appointment{staffAppt("a1", "s1", "100", 60), staffAppt("a2", "ghost", "50", 60)}

	m := CalculateMargin(MarginInput{
		Appointments: appts,
		Staff:        staff,
		StaffIDs:     []string{"s1"},
		Window:       weekWindow(),
		Settings:     utcSettings(),
	})
	require.Len(t, m.Labor, 1)
	assert.Equal(t, "s1", m.Labor[0].StaffID)

	m = CalculateMargin(MarginInput{Appointments: appts, Staff: staff, Window: weekWindow(), Settings: utcSettings()})
	require.Len(t, m.Labor, 3)
	assert.Equal(t, "ghost", m.Labor[2].StaffID)
	assert.Equal(t, "ghost", m.Labor[2].Name)
}

func TestCalculateMarginContribution(t *testing.T) {
	services := []records.Service{
		{ID: "svc-bath", Category: "bath"},
		{ID: "svc-groom", Category: "groom"},
	}
	a1 := staffAppt("a1", "", "500", 60)
	a1.ServiceID = "svc-bath"
	a2 := staffAppt("a2", "", "500", 60)
	a2.ServiceID = "svc-groom"
	a3 := staffAppt("a3", "", "0", 60)
	a3.ServiceID = "svc-unknown"
	noShow := staffAppt("a4", "", "100", 60)
	noShow.ServiceID = "svc-groom"
	noShow.Status = records.StatusNoShow

	settings := utcSettings()
	settings.Costs = CostConfig{
		Version:          "2025-q1",
		CategoryUnitCost: map[string]decimal.Decimal{"Bath": money("5"), "groom": money("12")},
		DefaultUnitCost:  money("3"),
	}

	m := CalculateMargin(MarginInput{
		Appointments: []records.Appointment{a1, a2, a3, noShow},
		Services:     services,
		Revenue:      RevenueSummary{NetSales: money("1000"), ProcessingFees: money("30")},
		Window:       weekWindow(),
		Settings:     settings,
	})

	assertMoney(t, "20", m.COGS)
	assertMoney(t, "950", m.ContributionMargin)
	assert.InDelta(t, 95, m.ContributionMarginPct, 1e-9)
	assert.Equal(t, "2025-q1", m.CostTableVersion)
}

func TestCalculateMarginZeroNetSales(t *testing.T) {
	m := CalculateMargin(MarginInput{Window: weekWindow(), Settings: utcSettings()})
	assert.Equal(t, 0.0, m.ContributionMarginPct)
	assertMoney(t, "0", m.ContributionMargin)
	assert.Empty(t, m.Labor)
}
