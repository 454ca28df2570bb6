package reports

import (
	"sort"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
)

// RebookWindowKey names a rebook window.
type RebookWindowKey string

const (
	Rebook24h RebookWindowKey = "24h"
	Rebook7d  RebookWindowKey = "7d"
	Rebook30d RebookWindowKey = "30d"
)

var rebookWindows = [...]struct {
	key RebookWindowKey
	d   time.Duration
}{
	{Rebook24h, 24 * time.Hour},
	{Rebook7d, 7 * 24 * time.Hour},
	{Rebook30d, 30 * 24 * time.Hour},
}

func (f RebookWindowFlags) enabled(key RebookWindowKey) bool {
	switch key {
	case Rebook24h:
		return f.Within24h
	case Rebook7d:
		return f.Within7d
	case Rebook30d:
		return f.Within30d
	}
	return false
}

// RebookRate is the share of eligible completed visits that led to another
// booking inside the window.
type RebookRate struct {
	Window   RebookWindowKey `json:"window"`
	Eligible int             `json:"eligible"`
	Rebooked int             `json:"rebooked"`
	Rate     float64         `json:"rate"`
}

// RetentionSummary holds the rebook cards and the lapsed count.
type RetentionSummary struct {
	Mode                WindowMode   `json:"mode"`
	Rebook              []RebookRate `json:"rebook"`
	LapsedCount         int          `json:"lapsed_count"`
	LapsedThresholdDays int          `json:"lapsed_threshold_days"`
}

// Rate returns the rate for a window and whether that window was computed.
func (r RetentionSummary) Rate(key RebookWindowKey) (RebookRate, bool) {
	for _, rate := range r.Rebook {
		if rate.Window == key {
			return rate, true
		}
	}
	return RebookRate{}, false
}

// LapsedCustomer is a customer overdue for a visit.
type LapsedCustomer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	LastVisit  string `json:"last_visit"`
	DaysSince  int    `json:"days_since"`
}

type booking struct {
	id       string
	bookedAt time.Time
	visitAt  time.Time
}

// rebookIndex holds each customer's bookings ordered by when they were made.
type rebookIndex struct {
	byCustomer map[string][]booking
	loc        *time.Location
}

func newRebookIndex(history []records.Appointment, loc *time.Location) *rebookIndex {
	idx := &rebookIndex{byCustomer: make(map[string][]booking), loc: loc}
	for _, a := range history {
		if a.CustomerID == "" || a.Status == records.StatusCancelled {
			continue
		}
		bookedAt, ok := parseInstant(a.BookedAt, loc)
		if !ok {
			continue
		}
		visitAt, ok := visitTime(a, loc)
		if !ok {
			continue
		}
		idx.byCustomer[a.CustomerID] = append(idx.byCustomer[a.CustomerID], booking{id: a.ID, bookedAt: bookedAt, visitAt: visitAt})
	}
	for _, list := range idx.byCustomer {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].bookedAt.Equal(list[j].bookedAt) {
				return list[i].bookedAt.Before(list[j].bookedAt)
			}
			return list[i].id < list[j].id
		})
	}
	return idx
}

// nextBooking returns how long after the visit the customer's next future
// appointment was booked.
func (idx *rebookIndex) nextBooking(visit records.Appointment, visitAt time.Time) (time.Duration, bool) {
	list := idx.byCustomer[visit.CustomerID]
	i := sort.Search(len(list), func(i int) bool { return list[i].bookedAt.After(visitAt) })
	for ; i < len(list); i++ {
		b := list[i]
		if b.id != visit.ID && b.visitAt.After(visitAt) {
			return b.bookedAt.Sub(visitAt), true
		}
	}
	return 0, false
}

// CalculateRetention computes rebook rates over the completed visits in appts,
// looking for follow-up bookings anywhere in history. A visit is eligible for a
// window only once the whole window has elapsed by now. LapsedCount is left for
// the caller to fill from LapsedCustomers.
func CalculateRetention(appts, history []records.Appointment, now time.Time, s Settings) RetentionSummary {
	s = s.WithDefaults()
	loc := s.Location()
	return calculateRetention(appts, newRebookIndex(history, loc), now.In(loc), s)
}

func calculateRetention(appts []records.Appointment, idx *rebookIndex, now time.Time, s Settings) RetentionSummary {
	loc := idx.loc
	summary := RetentionSummary{
		Mode:                s.Retention.WindowMode,
		LapsedThresholdDays: s.Retention.LapsedThresholdDays,
	}

	rates := make([]RebookRate, len(rebookWindows))
	for i, w := range rebookWindows {
		rates[i].Window = w.key
	}

	for _, a := range appts {
		if a.Status != records.StatusCompleted || a.CustomerID == "" {
			continue
		}
		visitAt, ok := visitTime(a, loc)
		if !ok {
			continue
		}
		gap, rebooked := idx.nextBooking(a, visitAt)

		var lower time.Duration
		for i, w := range rebookWindows {
			floor := lower
			lower = w.d
			if visitAt.Add(w.d).After(now) {
				continue
			}
			rates[i].Eligible++
			if !rebooked || gap > w.d {
				continue
			}
			if s.Retention.WindowMode == WindowDisjoint && gap <= floor {
				continue
			}
			rates[i].Rebooked++
		}
	}

	for i, w := range rebookWindows {
		if !s.Retention.RebookWindows.enabled(w.key) {
			continue
		}
		rates[i].Rate = ratio(rates[i].Rebooked, rates[i].Eligible)
		summary.Rebook = append(summary.Rebook, rates[i])
	}
	return summary
}

// staffRebookRate is the cumulative rebook rate of the completed visits in
// appts for a window of the given length.
func staffRebookRate(appts []records.Appointment, idx *rebookIndex, window time.Duration, now time.Time) float64 {
	var eligible, rebooked int
	for _, a := range appts {
		if a.Status != records.StatusCompleted || a.CustomerID == "" {
			continue
		}
		visitAt, ok := visitTime(a, idx.loc)
		if !ok || visitAt.Add(window).After(now) {
			continue
		}
		eligible++
		if gap, ok := idx.nextBooking(a, visitAt); ok && gap <= window {
			rebooked++
		}
	}
	return ratio(rebooked, eligible)
}

// LapsedCustomers lists customers whose latest completed visit is more than
// the lapsed threshold in days before now, most overdue first. Customers who
// never completed a visit are not lapsed. An appointment without a customer ID
// is credited to the customer whose AppointmentIDs lists it.
func LapsedCustomers(customers []records.Customer, history []records.Appointment, now time.Time, s Settings) []LapsedCustomer {
	s = s.WithDefaults()
	loc := s.Location()
	today := startOfDay(now.In(loc))

	names := make(map[string]string, len(customers))
	owner := make(map[string]string)
	for _, c := range customers {
		names[c.ID] = c.Name
		for _, id := range c.AppointmentIDs {
			owner[id] = c.ID
		}
	}

	last := make(map[string]time.Time)
	for _, a := range history {
		customerID := a.CustomerID
		if customerID == "" {
			customerID = owner[a.ID]
		}
		if a.Status != records.StatusCompleted || customerID == "" {
			continue
		}
		day, ok := parseDay(a.Date, loc)
		if !ok {
			continue
		}
		if prev, seen := last[customerID]; !seen || day.After(prev) {
			last[customerID] = day
		}
	}

	var out []LapsedCustomer
	for id, day := range last {
		days := calendarDaysBetween(day, today)
		if days <= s.Retention.LapsedThresholdDays {
			continue
		}
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, LapsedCustomer{
			CustomerID: id,
			Name:       name,
			LastVisit:  day.Format(records.DateLayout),
			DaysSince:  days,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysSince != out[j].DaysSince {
			return out[i].DaysSince > out[j].DaysSince
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}
