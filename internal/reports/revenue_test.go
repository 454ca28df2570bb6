package reports

import (
	"fmt"
	"testing"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRevenueTwoCompletedVisits(t *testing.T) {
	t1 := saleTxn("t1", "2025-03-14", "50")
	t1.DiscountTotal = money("10")
	t2 := saleTxn("t2", "2025-03-14", "70")

	rev := CalculateRevenue([]records.Transaction{t1, t2}, 2, utcSettings())

	assertMoney(t, "120", rev.GrossSales)
	assertMoney(t, "10", rev.Discounts)
	assertMoney(t, "0", rev.Refunds)
	assertMoney(t, "110", rev.NetSales)
	assertMoney(t, "55", rev.AvgTicket)
	assert.Equal(t, 2, rev.Transactions)
}

func TestCalculateRevenueSkipsPendingAndSubtractsRefunds(t *testing.T) {
	paid := saleTxn("t1", "2025-03-14", "100")
	pending := saleTxn("t2", "2025-03-14", "80")
	pending.Status = records.TransactionPending
	refunded := saleTxn("t3", "2025-03-14", "60")
	refunded.Status = records.TransactionRefunded
	refunded.RefundAmount = ptr(money("60"))

	rev := CalculateRevenue([]records.Transaction{paid, pending, refunded}, 0, utcSettings())

	assertMoney(t, "160", rev.GrossSales)
	assertMoney(t, "60", rev.Refunds)
	assertMoney(t, "100", rev.NetSales)
	assertMoney(t, "0", rev.AvgTicket)
	assert.Equal(t, 2, rev.Transactions)
}

func TestCalculateRevenueProcessingFees(t *testing.T) {
	txn := saleTxn("t1", "2025-03-14", "100")
	txn.TotalCollected = money("108")

	rev := CalculateRevenue([]records.Transaction{txn}, 1, utcSettings())
	assertMoney(t, "3.2", rev.ProcessingFees)

	onTotal := utcSettings()
	onTotal.Processor.FeeBasePolicy = FeeBaseTotal
	rev = CalculateRevenue([]records.Transaction{txn}, 1, onTotal)
	assertMoney(t, "3.43", rev.ProcessingFees)

	cashOnly := utcSettings()
	cashOnly.Processor.FeeRatePct = ptr(0.0)
	cashOnly.Processor.FeeFixed = ptr(decimal.Zero)
	rev = CalculateRevenue([]records.Transaction{txn}, 1, cashOnly)
	assertMoney(t, "0", rev.ProcessingFees)
}

func TestCalculateRevenueTips(t *testing.T) {
	txn := saleTxn("t1", "2025-03-14", "100")
	txn.TipTotal = money("15")

	rev := CalculateRevenue([]records.Transaction{txn}, 1, utcSettings())
	assertMoney(t, "100", rev.GrossSales)
	assertMoney(t, "15", rev.Tips)

	withTips := utcSettings()
	withTips.Tips.IncludeInGross = true
	rev = CalculateRevenue([]records.Transaction{txn}, 1, withTips)
	assertMoney(t, "115", rev.GrossSales)
}

func TestCalculateRevenueNetIdentity(t *testing.T) {
	var txns []records.Transaction
	for i := 0; i < 25; i++ {
		txn := saleTxn(fmt.Sprintf("t%d", i), "2025-03-14", fmt.Sprintf("%d.%02d", 20+i*3, i*7%100))
		txn.Items = append(txn.Items, records.LineItem{Type: records.LineItemProduct, Name: "Bow", Quantity: i%3 + 1, UnitPrice: money("4.50")})
		txn.DiscountTotal = decimal.NewFromInt(int64(i % 4))
		if i%5 == 0 {
			txn.RefundAmount = ptr(money("7.25"))
		}
		txns = append(txns, txn)

		rev := CalculateRevenue(txns, i+1, utcSettings())
		assert.True(t, rev.NetSales.Equal(rev.GrossSales.Sub(rev.Discounts).Sub(rev.Refunds)))

		product := rev.AvgTicket.Mul(decimal.NewFromInt(int64(i + 1)))
		assert.True(t, product.Sub(rev.NetSales).Abs().LessThanOrEqual(money("0.005").Mul(decimal.NewFromInt(int64(i+1)))),
			"avg ticket %s x %d should approximate net %s", rev.AvgTicket, i+1, rev.NetSales)
	}
}

func TestDeltaPctSign(t *testing.T) {
	tests := []struct {
		current, prior, want float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{100, 100, 0},
		{100, 0, 0},
		{0, 0, 0},
		{-50, -100, 50},
		{-150, -100, -50},
	}
	for _, tt := range tests {
		got := DeltaPct(tt.current, tt.prior)
		assert.InDelta(t, tt.want, got, 1e-9, "current %v prior %v", tt.current, tt.prior)
		if tt.prior != 0 && tt.current != tt.prior {
			assert.Equal(t, tt.current > tt.prior, got > 0)
		}
	}
}

func TestComparePeriods(t *testing.T) {
	cur := RevenueSummary{NetSales: money("150"), GrossSales: money("160"), AvgTicket: money("50"), CompletedAppointments: 3}
	prior := RevenueSummary{NetSales: money("100"), GrossSales: money("0"), AvgTicket: money("50"), CompletedAppointments: 2}

	cmp := ComparePeriods(cur, prior)
	assert.InDelta(t, 50, cmp.NetSalesDelta, 1e-9)
	assert.Equal(t, 0.0, cmp.GrossSalesDelta)
	assert.Equal(t, 0.0, cmp.AvgTicketDelta)
	assert.InDelta(t, 50, cmp.CompletedDelta, 1e-9)
	assertMoney(t, "100", cmp.PriorNetSales)
}
