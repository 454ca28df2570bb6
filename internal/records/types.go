// Package records defines the canonical shop records the reporting engine reads,
// the adapter that maps stored rows into them, and the Postgres repository that
// loads a per-org snapshot.
package records

import "github.com/shopspring/decimal"

// AppointmentStatus tracks an appointment through the grooming day.
type AppointmentStatus string

const (
	StatusScheduled      AppointmentStatus = "scheduled"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusCheckedIn      AppointmentStatus = "checked-in"
	StatusInProgress     AppointmentStatus = "in-progress"
	StatusReadyForPickup AppointmentStatus = "ready-for-pickup"
	StatusCompleted      AppointmentStatus = "completed"
	StatusCancelled      AppointmentStatus = "cancelled"
	StatusNoShow         AppointmentStatus = "no-show"
)

// IsOpen reports whether the appointment has not reached a terminal status.
func (s AppointmentStatus) IsOpen() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return false
	}
	return true
}

// Channel is how the appointment was booked.
type Channel string

const (
	ChannelWalkIn Channel = "walk-in"
	ChannelPhone  Channel = "phone"
	ChannelOnline Channel = "online"
)

// PetSize buckets pets for pricing and filtering.
type PetSize string

const (
	PetSizeSmall  PetSize = "small"
	PetSizeMedium PetSize = "medium"
	PetSizeLarge  PetSize = "large"
	PetSizeGiant  PetSize = "giant"
)

// DateLayout is the calendar date format used by Appointment.Date.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format used by Appointment.Time.
const TimeLayout = "15:04"

// Appointment is a single booked grooming visit.
// Date, Time and BookedAt are kept as text; the engine parses them and drops
// records it cannot read.
type Appointment struct {
	ID              string            `json:"id"`
	CustomerID      string            `json:"customer_id"`
	PetID           string            `json:"pet_id"`
	PetName         string            `json:"pet_name"`
	PetSize         PetSize           `json:"pet_size"`
	ServiceID       string            `json:"service_id"`
	ServiceName     string            `json:"service_name"`
	StaffID         string            `json:"staff_id,omitempty"`
	Date            string            `json:"date"`
	Time            string            `json:"time"`
	PlannedDuration int               `json:"planned_duration"`
	Status          AppointmentStatus `json:"status"`
	Price           decimal.Decimal   `json:"price"`
	Discount        *decimal.Decimal  `json:"discount,omitempty"`
	Channel         Channel           `json:"channel"`
	BookedAt        string            `json:"booked_at"`
	Notes           string            `json:"notes,omitempty"`
}

// DiscountAmount returns the discount, treating an absent discount as zero.
func (a Appointment) DiscountAmount() decimal.Decimal {
	if a.Discount == nil {
		return decimal.Zero
	}
	return *a.Discount
}

// NetPrice is the price after the appointment discount.
func (a Appointment) NetPrice() decimal.Decimal {
	return a.Price.Sub(a.DiscountAmount())
}

// TransactionStatus is the settlement state of a checkout.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionRefunded  TransactionStatus = "refunded"
)

// PaymentMethod is how a transaction was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentGiftCard PaymentMethod = "gift-card"
	PaymentOther    PaymentMethod = "other"
)

// LineItemType classifies what a line item sold.
type LineItemType string

const (
	LineItemService LineItemType = "service"
	LineItemProduct LineItemType = "product"
	LineItemAddon   LineItemType = "addon"
)

// LineItem is one row on a checkout receipt.
type LineItem struct {
	Type      LineItemType    `json:"type"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Amount is quantity times unit price.
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Transaction is a point-of-sale checkout.
type Transaction struct {
	ID              string            `json:"id"`
	CheckoutDate    string            `json:"checkout_date"`
	TransactionDate string            `json:"transaction_date"`
	AppointmentID   string            `json:"appointment_id,omitempty"`
	CustomerID      string            `json:"customer_id"`
	StaffID         string            `json:"staff_id,omitempty"`
	Items           []LineItem        `json:"items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DiscountTotal   decimal.Decimal   `json:"discount_total"`
	TaxTotal        decimal.Decimal   `json:"tax_total"`
	TipTotal        decimal.Decimal   `json:"tip_total"`
	TotalCollected  decimal.Decimal   `json:"total_collected"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	Status          TransactionStatus `json:"status"`
	RefundAmount    *decimal.Decimal  `json:"refund_amount,omitempty"`
}

// Refunded returns the refunded amount, zero when none was recorded.
func (t Transaction) Refunded() decimal.Decimal {
	if t.RefundAmount == nil {
		return decimal.Zero
	}
	return *t.RefundAmount
}

// Service is a bookable grooming service.
type Service struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Duration int             `json:"duration"`
	Price    decimal.Decimal `json:"price"`
}

// CompensationModel selects how a groomer's labor cost is computed.
type CompensationModel string

const (
	CompensationCommission CompensationModel = "commission"
	CompensationHourly     CompensationModel = "hourly"
	CompensationSalary     CompensationModel = "salary"
)

// GuaranteePayout decides how a weekly guarantee combines with computed pay.
type GuaranteePayout string

const (
	// PayoutHigher pays the larger of computed pay and the guarantee.
	PayoutHigher GuaranteePayout = "higher"
	// PayoutBoth pays computed pay plus the guarantee.
	PayoutBoth GuaranteePayout = "both"
)

// WeeklyGuarantee is a minimum weekly payout for a staff member.
type WeeklyGuarantee struct {
	Enabled      bool            `json:"enabled"`
	Amount       decimal.Decimal `json:"amount"`
	PayoutMethod GuaranteePayout `json:"payout_method"`
}

// Compensation holds a staff member's pay attributes. Nil fields fall back to
// shop-wide labor defaults.
type Compensation struct {
	Model           CompensationModel `json:"model,omitempty"`
	CommissionPct   *float64          `json:"commission_pct,omitempty"`
	HourlyRate      *decimal.Decimal  `json:"hourly_rate,omitempty"`
	AnnualSalary    *decimal.Decimal  `json:"annual_salary,omitempty"`
	WeeklyGuarantee WeeklyGuarantee   `json:"weekly_guarantee"`
}

// Staff is a groomer or bather.
type Staff struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Compensation Compensation `json:"compensation"`
}

// Customer is a pet owner.
type Customer struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CreatedAt      string   `json:"created_at"`
	AppointmentIDs []string `json:"appointment_ids,omitempty"`
}

// Snapshot is everything the engine needs for one org, plus the data version
// the report cache keys on.
type Snapshot struct {
	OrgID        string        `json:"org_id"`
	Version      string        `json:"version"`
	Appointments []Appointment `json:"appointments"`
	Transactions []Transaction `json:"transactions"`
	Services     []Service     `json:"services"`
	Staff        []Staff       `json:"staff"`
	Customers    []Customer    `json:"customers"`
}
