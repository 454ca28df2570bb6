package reports

import (
	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RevenueSummary is the revenue breakdown for a set of transactions.
type RevenueSummary struct {
	GrossSales            decimal.Decimal `json:"gross_sales"`
	Discounts             decimal.Decimal `json:"discounts"`
	Refunds               decimal.Decimal `json:"refunds"`
	NetSales              decimal.Decimal `json:"net_sales"`
	ProcessingFees        decimal.Decimal `json:"processing_fees"`
	Tips                  decimal.Decimal `json:"tips"`
	Tax                   decimal.Decimal `json:"tax"`
	AvgTicket             decimal.Decimal `json:"avg_ticket"`
	Transactions          int             `json:"transactions"`
	CompletedAppointments int             `json:"completed_appointments"`
}

// CalculateRevenue totals filtered transactions. Pending checkouts are not
// revenue yet and are skipped. Average ticket divides net sales by the number
// of completed appointments in the same filtered period.
func CalculateRevenue(txns []records.Transaction, completedAppointments int, s Settings) RevenueSummary {
	s = s.WithDefaults()
	ratePct := decimal.NewFromFloat(*s.Processor.FeeRatePct)
	fixed := *s.Processor.FeeFixed

	sum := RevenueSummary{CompletedAppointments: completedAppointments}
	for _, t := range txns {
		if t.Status == records.TransactionPending {
			continue
		}
		sum.Transactions++

		for _, item := range t.Items {
			sum.GrossSales = sum.GrossSales.Add(item.Amount())
		}
		if s.Tips.IncludeInGross {
			sum.GrossSales = sum.GrossSales.Add(t.TipTotal)
		}
		sum.Discounts = sum.Discounts.Add(t.DiscountTotal)
		sum.Refunds = sum.Refunds.Add(t.Refunded())
		sum.Tips = sum.Tips.Add(t.TipTotal)
		sum.Tax = sum.Tax.Add(t.TaxTotal)

		base := t.Subtotal
		if s.Processor.FeeBasePolicy == FeeBaseTotal {
			base = t.TotalCollected
		}
		sum.ProcessingFees = sum.ProcessingFees.Add(base.Mul(ratePct).Div(hundred)).Add(fixed)
	}

	sum.ProcessingFees = sum.ProcessingFees.Round(2)
	sum.NetSales = sum.GrossSales.Sub(sum.Discounts).Sub(sum.Refunds)
	sum.AvgTicket = divMoney(sum.NetSales, completedAppointments)
	return sum
}

// divMoney divides an amount by a count, rounding to cents. Zero count yields zero.
func divMoney(amount decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// ratio returns num/den*100, or 0 when den is zero.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// ratioDec is ratio for money amounts.
func ratioDec(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	pct, _ := num.Div(den).Mul(hundred).Float64()
	return pct
}
