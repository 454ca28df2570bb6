package reports

import (
	"testing"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, money(want).Equal(got), "want %s, got %s", want, got.String())
}

func utcSettings() Settings {
	return Settings{Timezone: "UTC"}
}

func appt(id, customer, date string, status records.AppointmentStatus, price string) records.Appointment {
	return records.Appointment{
		ID:              id,
		CustomerID:      customer,
		Date:            date,
		Time:            "10:00",
		PlannedDuration: 60,
		Status:          status,
		Price:           money(price),
	}
}

func saleTxn(id, when, amount string) records.Transaction {
	amt := money(amount)
	return records.Transaction{
		ID:              id,
		CheckoutDate:    when,
		TransactionDate: when,
		Items:           []records.LineItem{{Type: records.LineItemService, Name: "Groom", Quantity: 1, UnitPrice: amt}},
		Subtotal:        amt,
		TotalCollected:  amt,
		PaymentMethod:   records.PaymentCard,
		Status:          records.TransactionCompleted,
	}
}
