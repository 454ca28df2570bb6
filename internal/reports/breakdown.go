package reports

import (
	"sort"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
)

// ServiceRow is one line of the service breakdown table.
type ServiceRow struct {
	ServiceID    string          `json:"service_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Count        int             `json:"count"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	Discounts    decimal.Decimal `json:"discounts"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	AvgTicket    decimal.Decimal `json:"avg_ticket"`
	DiscountPct  float64         `json:"discount_pct"`
}

// StaffRow is one line of the staff performance table.
type StaffRow struct {
	StaffID        string          `json:"staff_id"`
	Name           string          `json:"name"`
	Appointments   int             `json:"appointments"`
	Revenue        decimal.Decimal `json:"revenue"`
	Hours          decimal.Decimal `json:"hours"`
	RevenuePerHour decimal.Decimal `json:"revenue_per_hour"`
	AvgTicket      decimal.Decimal `json:"avg_ticket"`
	RebookRate     float64         `json:"rebook_rate"`
	NoShowRate     float64         `json:"no_show_rate"`
}

// ServiceBreakdown groups billable appointments by service. Rows are ordered
// by net revenue, highest first, then service id.
func ServiceBreakdown(appts []records.Appointment, services []records.Service) []ServiceRow {
	catalog := make(map[string]records.Service, len(services))
	for _, svc := range services {
		catalog[svc.ID] = svc
	}

	rows := make(map[string]*ServiceRow)
	for _, a := range appts {
		if !billable(a) {
			continue
		}
		row, ok := rows[a.ServiceID]
		if !ok {
			svc := catalog[a.ServiceID]
			name := svc.Name
			if name == "" {
				name = a.ServiceName
			}
			row = &ServiceRow{ServiceID: a.ServiceID, Name: name, Category: svc.Category}
			rows[a.ServiceID] = row
		}
		row.Count++
		row.GrossRevenue = row.GrossRevenue.Add(a.Price)
		row.Discounts = row.Discounts.Add(a.DiscountAmount())
	}

	out := make([]ServiceRow, 0, len(rows))
	for _, row := range rows {
		row.NetRevenue = row.GrossRevenue.Sub(row.Discounts)
		row.AvgTicket = divMoney(row.NetRevenue, row.Count)
		row.DiscountPct = ratioDec(row.Discounts, row.GrossRevenue)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NetRevenue.Equal(out[j].NetRevenue) {
			return out[i].NetRevenue.GreaterThan(out[j].NetRevenue)
		}
		return out[i].ServiceID < out[j].ServiceID
	})
	return out
}

// StaffBreakdown groups appointments by assigned staff member; unassigned
// appointments are left out. Revenue and hours count billable appointments,
// no-show rate counts all of them, and the rebook rate uses the attribution
// window over completed visits with follow-ups searched in history.
func StaffBreakdown(appts, history []records.Appointment, staff []records.Staff, now time.Time, s Settings) []StaffRow {
	s = s.WithDefaults()
	loc := s.Location()
	return staffBreakdown(appts, staff, newRebookIndex(history, loc), now.In(loc), s)
}

func staffBreakdown(appts []records.Appointment, staff []records.Staff, idx *rebookIndex, now time.Time, s Settings) []StaffRow {
	names := make(map[string]string, len(staff))
	for _, st := range staff {
		names[st.ID] = st.Name
	}

	type group struct {
		row     StaffRow
		minutes int
		noShows int
		all     []records.Appointment
	}
	groups := make(map[string]*group)
	for _, a := range appts {
		if a.StaffID == "" {
			continue
		}
		g, ok := groups[a.StaffID]
		if !ok {
			name := names[a.StaffID]
			if name == "" {
				name = a.StaffID
			}
			g = &group{row: StaffRow{StaffID: a.StaffID, Name: name}}
			groups[a.StaffID] = g
		}
		g.all = append(g.all, a)
		if a.Status == records.StatusNoShow {
			g.noShows++
		}
		if !billable(a) {
			continue
		}
		g.row.Appointments++
		g.row.Revenue = g.row.Revenue.Add(a.NetPrice())
		g.minutes += a.PlannedDuration
	}

	window := time.Duration(s.Attribution.WindowDays) * 24 * time.Hour
	out := make([]StaffRow, 0, len(groups))
	for _, id := range sortedKeys(groups) {
		g := groups[id]
		row := g.row
		row.Hours = decimal.NewFromInt(int64(g.minutes)).Div(sixty).Round(2)
		if g.minutes > 0 {
			row.RevenuePerHour = row.Revenue.Mul(sixty).Div(decimal.NewFromInt(int64(g.minutes))).Round(2)
		}
		row.AvgTicket = divMoney(row.Revenue, row.Appointments)
		row.RebookRate = staffRebookRate(g.all, idx, window, now)
		row.NoShowRate = ratio(g.noShows, len(g.all))
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out
}
