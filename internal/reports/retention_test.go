package reports

import (
	"testing"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visit(id, customer, date, clock, bookedAt string, status records.AppointmentStatus) records.Appointment {
	a := appt(id, customer, date, status, "60")
	a.Time = clock
	a.BookedAt = bookedAt
	return a
}

func retentionFixture() []records.Appointment {
	return []records.Appointment{
		// Rebooked ten hours after the visit.
		visit("v1", "c1", "2025-03-01", "10:00", "2025-02-20T09:00:00Z", records.StatusCompleted),
		visit("r1", "c1", "2025-04-05", "10:00", "2025-03-01T20:00:00Z", records.StatusScheduled),
		// Rebooked three days after the visit.
		visit("v2", "c2", "2025-03-02", "09:00", "2025-02-10T09:00:00Z", records.StatusCompleted),
		visit("r2", "c2", "2025-03-20", "09:00", "2025-03-05T09:00:00Z", records.StatusCompleted),
		// Only follow-up was cancelled.
		visit("v3", "c3", "2025-03-03", "09:00", "2025-02-10T09:00:00Z", records.StatusCompleted),
		visit("r3", "c3", "2025-03-10", "09:00", "2025-03-03T12:00:00Z", records.StatusCancelled),
		// Too recent for the 7 and 30 day windows.
		visit("v4", "c4", "2025-03-29", "09:00", "2025-03-01T09:00:00Z", records.StatusCompleted),
	}
}

func rateFor(t *testing.T, r RetentionSummary, key RebookWindowKey) RebookRate {
	t.Helper()
	rate, ok := r.Rate(key)
	require.True(t, ok, "window %s missing", key)
	return rate
}

func TestCalculateRetentionCumulative(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	history := retentionFixture()

	r := CalculateRetention(history, history, now, utcSettings())
	assert.Equal(t, WindowCumulative, r.Mode)

	h24 := rateFor(t, r, Rebook24h)
	assert.Equal(t, RebookRate{Window: Rebook24h, Eligible: 5, Rebooked: 1, Rate: 20}, h24)

	d7 := rateFor(t, r, Rebook7d)
	assert.Equal(t, 4, d7.Eligible)
	assert.Equal(t, 2, d7.Rebooked)
	assert.InDelta(t, 50, d7.Rate, 1e-9)

	d30 := rateFor(t, r, Rebook30d)
	assert.Equal(t, 1, d30.Eligible)
	assert.Equal(t, 1, d30.Rebooked)
}

func TestCalculateRetentionDisjoint(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	history := retentionFixture()
	settings := utcSettings()
	settings.Retention.WindowMode = WindowDisjoint

	r := CalculateRetention(history, history, now, settings)

	assert.Equal(t, 1, rateFor(t, r, Rebook24h).Rebooked)
	assert.Equal(t, 1, rateFor(t, r, Rebook7d).Rebooked, "the ten hour rebooking belongs to the 24h bucket only")
	assert.Equal(t, 0, rateFor(t, r, Rebook30d).Rebooked)
}

func TestCalculateRetentionDisabledWindow(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	history := retentionFixture()
	settings := utcSettings()
	settings.Retention.RebookWindows = &RebookWindowFlags{Within24h: true, Within30d: true}

	r := CalculateRetention(history, history, now, settings)
	require.Len(t, r.Rebook, 2)
	_, ok := r.Rate(Rebook7d)
	assert.False(t, ok)
}

func TestCalculateRetentionNoVisits(t *testing.T) {
	r := CalculateRetention(nil, nil, time.Now(), utcSettings())
	for _, rate := range r.Rebook {
		assert.Equal(t, 0.0, rate.Rate)
		assert.Zero(t, rate.Eligible)
	}
}

func TestLapsedCustomers(t *testing.T) {
	now := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)
	customers := []records.Customer{
		{ID: "c1", Name: "Dana Park"},
		{ID: "c2", Name: "Lee Wong"},
		{ID: "c3", Name: "Pat Kim"},
		{ID: "c5", Name: "Ana Ruiz"},
	}
	history := []records.Appointment{
		appt("a1", "c1", "2025-03-02", records.StatusCompleted, "60"),
		appt("a2", "c2", "2024-12-01", records.StatusCompleted, "60"),
		appt("a3", "c2", "2025-05-01", records.StatusCompleted, "60"),
		appt("a4", "c3", "2024-01-01", records.StatusNoShow, "60"),
		appt("a5", "c4", "2025-01-01", records.StatusCompleted, "60"),
		appt("a6", "c5", "2025-04-01", records.StatusCompleted, "60"),
		appt("a7", "c1", "not a date", records.StatusCompleted, "60"),
	}

	lapsed := LapsedCustomers(customers, history, now, utcSettings())

	require.Len(t, lapsed, 2)
	assert.Equal(t, LapsedCustomer{CustomerID: "c4", Name: "c4", LastVisit: "2025-01-01", DaysSince: 180}, lapsed[0])
	assert.Equal(t, LapsedCustomer{CustomerID: "c1", Name: "Dana Park", LastVisit: "2025-03-02", DaysSince: 120}, lapsed[1])
}

func TestLapsedCustomersUsesCustomerAppointmentLinks(t *testing.T) {
	now := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)
	customers := []records.Customer{
		{ID: "c1", Name: "Dana Park", AppointmentIDs: []string{"a1", "a2"}},
	}
	history := []records.Appointment{
		appt("a1", "", "2025-01-01", records.StatusCompleted, "60"),
		appt("a2", "", "2025-06-20", records.StatusCompleted, "60"),
		appt("a3", "", "2024-01-01", records.StatusCompleted, "60"),
	}

	assert.Empty(t, LapsedCustomers(customers, history, now, utcSettings()), "linked recent visit keeps the customer active")

	customers[0].AppointmentIDs = []string{"a1"}
	lapsed := LapsedCustomers(customers, history, now, utcSettings())
	require.Len(t, lapsed, 1)
	assert.Equal(t, "c1", lapsed[0].CustomerID)
	assert.Equal(t, "2025-01-01", lapsed[0].LastVisit)
}

func TestLapsedCustomersThreshold(t *testing.T) {
	now := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)
	history := []records.Appointment{appt("a1", "c1", "2025-05-01", records.StatusCompleted, "60")}
	settings := utcSettings()
	settings.Retention.LapsedThresholdDays = 30

	lapsed := LapsedCustomers(nil, history, now, settings)
	require.Len(t, lapsed, 1)
	assert.Equal(t, 60, lapsed[0].DaysSince)
}
