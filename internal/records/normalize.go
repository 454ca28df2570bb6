package records

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The Stored* types mirror rows as they sit in Postgres. Amounts are cents and
// enum columns may carry legacy spellings ("canceled", "no_show", "credit").
// Normalize* turns them into canonical records; nothing downstream sees them.

// StoredAppointment is an appointments row.
type StoredAppointment struct {
	ID              string
	CustomerID      string
	PetID           string
	PetName         string
	PetSize         string
	ServiceID       string
	ServiceName     string
	StaffID         *string
	ScheduledDate   *time.Time
	StartTime       string
	DurationMinutes int
	Status          string
	PriceCents      int64
	DiscountCents   *int64
	Channel         string
	BookedAt        *time.Time
	Notes           string
}

// StoredLineItem is one element of the transactions.items jsonb column.
type StoredLineItem struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// StoredTransaction is a transactions row.
type StoredTransaction struct {
	ID            string
	CheckoutAt    *time.Time
	CreatedAt     *time.Time
	AppointmentID *string
	CustomerID    string
	StaffID       *string
	Items         []byte
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TipCents      int64
	TotalCents    int64
	PaymentMethod string
	Status        string
	RefundCents   *int64
}

// StoredService is a services row.
type StoredService struct {
	ID              string
	Name            string
	Category        string
	DurationMinutes int
	PriceCents      int64
}

// StoredStaff is a staff row with flattened compensation columns.
type StoredStaff struct {
	ID                string
	Name              string
	PayModel          string
	CommissionPct     *float64
	HourlyRateCents   *int64
	AnnualSalaryCents *int64
	GuaranteeEnabled  bool
	GuaranteeCents    int64
	GuaranteePayout   string
}

// StoredCustomer is a customers row.
type StoredCustomer struct {
	ID        string
	FirstName string
	LastName  string
	CreatedAt *time.Time
}

// Cents converts an integer cent amount to a decimal dollar amount.
func Cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func optionalCents(c *int64) *decimal.Decimal {
	if c == nil {
		return nil
	}
	d := Cents(*c)
	return &d
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func formatInstant(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func enumKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", "-")
	return strings.ReplaceAll(key, " ", "-")
}

// NormalizeStatus maps stored status spellings to AppointmentStatus.
// Unknown values pass through lowercased so status filters can still match.
func NormalizeStatus(raw string) AppointmentStatus {
	switch key := enumKey(raw); key {
	case "canceled":
		return StatusCancelled
	case "noshow", "no-showed":
		return StatusNoShow
	case "checkedin":
		return StatusCheckedIn
	case "inprogress":
		return StatusInProgress
	case "ready", "readyforpickup":
		return StatusReadyForPickup
	case "complete", "done":
		return StatusCompleted
	case "booked", "pending":
		return StatusScheduled
	default:
		return AppointmentStatus(key)
	}
}

// NormalizeChannel maps stored booking-source spellings to Channel.
func NormalizeChannel(raw string) Channel {
	switch key := enumKey(raw); key {
	case "walkin", "walk-in", "in-person":
		return ChannelWalkIn
	case "call", "phone":
		return ChannelPhone
	case "web", "online", "app":
		return ChannelOnline
	default:
		return Channel(key)
	}
}

// NormalizePaymentMethod maps stored tender types to PaymentMethod.
func NormalizePaymentMethod(raw string) PaymentMethod {
	switch key := enumKey(raw); key {
	case "credit", "debit", "card", "credit-card", "debit-card":
		return PaymentCard
	case "cash":
		return PaymentCash
	case "giftcard", "gift-card", "gift":
		return PaymentGiftCard
	default:
		return PaymentOther
	}
}

// NormalizeTransactionStatus maps stored settlement states.
func NormalizeTransactionStatus(raw string) TransactionStatus {
	switch key := enumKey(raw); key {
	case "paid", "completed", "complete", "settled":
		return TransactionCompleted
	case "refunded", "partially-refunded", "refund":
		return TransactionRefunded
	default:
		return TransactionPending
	}
}

// NormalizeCompensationModel maps stored pay models; unknown models are empty
// so labor defaults apply.
func NormalizeCompensationModel(raw string) CompensationModel {
	switch key := enumKey(raw); key {
	case "commission", "commissioned":
		return CompensationCommission
	case "hourly", "wage":
		return CompensationHourly
	case "salary", "salaried":
		return CompensationSalary
	default:
		return ""
	}
}

// NormalizeAppointment converts a stored appointment row.
func NormalizeAppointment(s StoredAppointment) Appointment {
	a := Appointment{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		PetID:           s.PetID,
		PetName:         s.PetName,
		PetSize:         PetSize(enumKey(s.PetSize)),
		ServiceID:       s.ServiceID,
		ServiceName:     s.ServiceName,
		StaffID:         optionalString(s.StaffID),
		Time:            strings.TrimSpace(s.StartTime),
		PlannedDuration: s.DurationMinutes,
		Status:          NormalizeStatus(s.Status),
		Price:           Cents(s.PriceCents),
		Discount:        optionalCents(s.DiscountCents),
		Channel:         NormalizeChannel(s.Channel),
		BookedAt:        formatInstant(s.BookedAt),
		Notes:           s.Notes,
	}
	if s.ScheduledDate != nil && !s.ScheduledDate.IsZero() {
		a.Date = s.ScheduledDate.Format(DateLayout)
	}
	if len(a.Time) > len(TimeLayout) {
		// "09:30:00" from a time column
		a.Time = a.Time[:len(TimeLayout)]
	}
	return a
}

// NormalizeTransaction converts a stored transaction row. It fails only when the
// items column is not valid JSON.
func NormalizeTransaction(s StoredTransaction) (Transaction, error) {
	var stored []StoredLineItem
	if len(s.Items) > 0 {
		if err := json.Unmarshal(s.Items, &stored); err != nil {
			return Transaction{}, fmt.Errorf("records: decode items for transaction %s: %w", s.ID, err)
		}
	}
	items := make([]LineItem, 0, len(stored))
	for _, it := range stored {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		itemType := LineItemType(enumKey(it.Type))
		if itemType == "" {
			itemType = LineItemService
		}
		items = append(items, LineItem{
			Type:      itemType,
			Name:      it.Name,
			Quantity:  qty,
			UnitPrice: Cents(it.UnitPriceCents),
		})
	}

	return Transaction{
		ID:              s.ID,
		CheckoutDate:    formatInstant(s.CheckoutAt),
		TransactionDate: formatInstant(s.CreatedAt),
		AppointmentID:   optionalString(s.AppointmentID),
		CustomerID:      s.CustomerID,
		StaffID:         optionalString(s.StaffID),
		Items:           items,
		Subtotal:        Cents(s.SubtotalCents),
		DiscountTotal:   Cents(s.DiscountCents),
		TaxTotal:        Cents(s.TaxCents),
		TipTotal:        Cents(s.TipCents),
		TotalCollected:  Cents(s.TotalCents),
		PaymentMethod:   NormalizePaymentMethod(s.PaymentMethod),
		Status:          NormalizeTransactionStatus(s.Status),
		RefundAmount:    optionalCents(s.RefundCents),
	}, nil
}

// NormalizeService converts a stored service row.
func NormalizeService(s StoredService) Service {
	category := strings.ToLower(strings.TrimSpace(s.Category))
	return Service{
		ID:       s.ID,
		Name:     s.Name,
		Category: category,
		Duration: s.DurationMinutes,
		Price:    Cents(s.PriceCents),
	}
}

// NormalizeStaff converts a stored staff row.
func NormalizeStaff(s StoredStaff) Staff {
	payout := GuaranteePayout(enumKey(s.GuaranteePayout))
	if payout != PayoutBoth {
		payout = PayoutHigher
	}
	return Staff{
		ID:   s.ID,
		Name: s.Name,
		Compensation: Compensation{
			Model:         NormalizeCompensationModel(s.PayModel),
			CommissionPct: s.CommissionPct,
			HourlyRate:    optionalCents(s.HourlyRateCents),
			AnnualSalary:  optionalCents(s.AnnualSalaryCents),
			WeeklyGuarantee: WeeklyGuarantee{
				Enabled:      s.GuaranteeEnabled,
				Amount:       Cents(s.GuaranteeCents),
				PayoutMethod: payout,
			},
		},
	}
}

// NormalizeCustomer converts a stored customer row.
func NormalizeCustomer(s StoredCustomer) Customer {
	name := strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
	return Customer{
		ID:        s.ID,
		Name:      name,
		CreatedAt: formatInstant(s.CreatedAt),
	}
}

// LinkCustomerAppointments fills Customer.AppointmentIDs from the appointment
// list. It returns a new slice and leaves the inputs untouched.
func LinkCustomerAppointments(customers []Customer, appts []Appointment) []Customer {
	byCustomer := make(map[string][]string, len(customers))
	for _, a := range appts {
		byCustomer[a.CustomerID] = append(byCustomer[a.CustomerID], a.ID)
	}
	out := make([]Customer, len(customers))
	for i, c := range customers {
		c.AppointmentIDs = byCustomer[c.ID]
		out[i] = c
	}
	return out
}
