package reports

import (
	"math"

	"github.com/shopspring/decimal"
)

// Comparison holds period-over-period deltas in percent. The prior figures are
// kept so callers can show both sides.
type Comparison struct {
	PriorNetSales              decimal.Decimal `json:"prior_net_sales"`
	PriorGrossSales            decimal.Decimal `json:"prior_gross_sales"`
	PriorAvgTicket             decimal.Decimal `json:"prior_avg_ticket"`
	PriorCompletedAppointments int             `json:"prior_completed_appointments"`
	NetSalesDelta              float64         `json:"net_sales_delta"`
	GrossSalesDelta            float64         `json:"gross_sales_delta"`
	AvgTicketDelta             float64         `json:"avg_ticket_delta"`
	CompletedDelta             float64         `json:"completed_delta"`
}

// PriorWindow is the window of identical calendar length ending the day before
// w starts.
func PriorWindow(w Window) Window {
	shift := w.Days()
	return Window{
		Start: w.Start.AddDate(0, 0, -shift),
		End:   w.End.AddDate(0, 0, -shift),
	}
}

// DeltaPct is the percentage change from prior to current. It is 0 when prior
// is 0 and always has the sign of current - prior.
func DeltaPct(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior) * 100
}

func deltaDec(current, prior decimal.Decimal) float64 {
	c, _ := current.Float64()
	p, _ := prior.Float64()
	return DeltaPct(c, p)
}

// ComparePeriods computes deltas between current and prior revenue.
func ComparePeriods(current, prior RevenueSummary) Comparison {
	return Comparison{
		PriorNetSales:              prior.NetSales,
		PriorGrossSales:            prior.GrossSales,
		PriorAvgTicket:             prior.AvgTicket,
		PriorCompletedAppointments: prior.CompletedAppointments,
		NetSalesDelta:              deltaDec(current.NetSales, prior.NetSales),
		GrossSalesDelta:            deltaDec(current.GrossSales, prior.GrossSales),
		AvgTicketDelta:             deltaDec(current.AvgTicket, prior.AvgTicket),
		CompletedDelta:             DeltaPct(float64(current.CompletedAppointments), float64(prior.CompletedAppointments)),
	}
}
