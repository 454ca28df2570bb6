package reports

import (
	"slices"
	"sort"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
)

// TimeBasis selects which date anchors a transaction to the reporting window.
type TimeBasis string

const (
	BasisService     TimeBasis = "service"
	BasisCheckout    TimeBasis = "checkout"
	BasisTransaction TimeBasis = "transaction"
)

// ClientType splits customers into first-time and repeat visitors.
type ClientType string

const (
	ClientNew       ClientType = "new"
	ClientReturning ClientType = "returning"
)

// Filters is the global filter bar. Every list is an inclusion list; an empty
// list leaves that dimension unconstrained and dimensions combine with AND.
type Filters struct {
	DateRange      DateRange                   `json:"date_range"`
	TimeBasis      TimeBasis                   `json:"time_basis,omitempty"`
	StaffIDs       []string                    `json:"staff_ids,omitempty"`
	ServiceIDs     []string                    `json:"service_ids,omitempty"`
	PetSizes       []records.PetSize           `json:"pet_sizes,omitempty"`
	Channels       []records.Channel           `json:"channels,omitempty"`
	ClientTypes    []ClientType                `json:"client_types,omitempty"`
	Statuses       []records.AppointmentStatus `json:"statuses,omitempty"`
	PaymentMethods []records.PaymentMethod     `json:"payment_methods,omitempty"`
}

// Basis returns the time basis, defaulting to service date.
func (f Filters) Basis() TimeBasis {
	switch f.TimeBasis {
	case BasisCheckout, BasisTransaction:
		return f.TimeBasis
	}
	return BasisService
}

// appointmentDims reports whether any dimension that can only be answered
// through an appointment is active.
func (f Filters) appointmentDims() bool {
	return len(f.ServiceIDs) > 0 || len(f.PetSizes) > 0 || len(f.Channels) > 0 ||
		len(f.ClientTypes) > 0 || len(f.Statuses) > 0
}

func included[T comparable](allowed []T, v T) bool {
	return len(allowed) == 0 || slices.Contains(allowed, v)
}

// appointmentIndex answers id lookups and first-visit questions over the
// whole appointment history.
type appointmentIndex struct {
	byID            map[string]int
	appts           []records.Appointment
	firstByCustomer map[string]string
}

func newAppointmentIndex(appts []records.Appointment, loc *time.Location) *appointmentIndex {
	idx := &appointmentIndex{
		byID:            make(map[string]int, len(appts)),
		appts:           appts,
		firstByCustomer: make(map[string]string),
	}
	firstAt := make(map[string]time.Time)
	for i, a := range appts {
		idx.byID[a.ID] = i
		if a.CustomerID == "" {
			continue
		}
		at, ok := visitTime(a, loc)
		if !ok {
			continue
		}
		prev, seen := firstAt[a.CustomerID]
		if !seen || at.Before(prev) || (at.Equal(prev) && a.ID < idx.firstByCustomer[a.CustomerID]) {
			firstAt[a.CustomerID] = at
			idx.firstByCustomer[a.CustomerID] = a.ID
		}
	}
	return idx
}

func (idx *appointmentIndex) lookup(id string) (records.Appointment, bool) {
	if id == "" {
		return records.Appointment{}, false
	}
	i, ok := idx.byID[id]
	if !ok {
		return records.Appointment{}, false
	}
	return idx.appts[i], true
}

func (idx *appointmentIndex) clientType(a records.Appointment) ClientType {
	if a.CustomerID != "" && idx.firstByCustomer[a.CustomerID] == a.ID {
		return ClientNew
	}
	return ClientReturning
}

// matchesAppointment applies the appointment-level dimensions, not the window.
func (f Filters) matchesAppointment(a records.Appointment, idx *appointmentIndex) bool {
	return included(f.ServiceIDs, a.ServiceID) &&
		included(f.PetSizes, a.PetSize) &&
		included(f.Channels, a.Channel) &&
		included(f.Statuses, a.Status) &&
		included(f.ClientTypes, idx.clientType(a))
}

// FilterAppointments returns the appointments whose service date falls inside w
// and that pass every active filter dimension. Records with unreadable dates are
// dropped. The input slice is not modified.
func FilterAppointments(appts []records.Appointment, f Filters, w Window) []records.Appointment {
	return filterAppointments(appts, f, w, newAppointmentIndex(appts, w.Start.Location()))
}

func filterAppointments(appts []records.Appointment, f Filters, w Window, idx *appointmentIndex) []records.Appointment {
	loc := w.Start.Location()
	out := make([]records.Appointment, 0, len(appts))
	for _, a := range appts {
		day, ok := parseDay(a.Date, loc)
		if !ok || !w.Contains(day) {
			continue
		}
		if !included(f.StaffIDs, a.StaffID) || !f.matchesAppointment(a, idx) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterTransactions returns the transactions anchored inside w by the filter's
// time basis and passing every active dimension. appts is the full appointment
// history, used to resolve links; a transaction without a resolvable
// appointment fails any active appointment-only dimension.
func FilterTransactions(txns []records.Transaction, appts []records.Appointment, f Filters, w Window) []records.Transaction {
	return filterTransactions(txns, f, w, newAppointmentIndex(appts, w.Start.Location()))
}

func filterTransactions(txns []records.Transaction, f Filters, w Window, idx *appointmentIndex) []records.Transaction {
	loc := w.Start.Location()
	basis := f.Basis()
	linkedDims := f.appointmentDims()

	out := make([]records.Transaction, 0, len(txns))
	for _, t := range txns {
		appt, linked := idx.lookup(t.AppointmentID)

		at, ok := transactionTime(t, appt, linked, basis, loc)
		if !ok || !w.Contains(at) {
			continue
		}

		staffID := t.StaffID
		if staffID == "" && linked {
			staffID = appt.StaffID
		}
		if !included(f.StaffIDs, staffID) || !included(f.PaymentMethods, t.PaymentMethod) {
			continue
		}
		if linkedDims && (!linked || !f.matchesAppointment(appt, idx)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func transactionTime(t records.Transaction, appt records.Appointment, linked bool, basis TimeBasis, loc *time.Location) (time.Time, bool) {
	switch basis {
	case BasisCheckout:
		return parseInstant(t.CheckoutDate, loc)
	case BasisTransaction:
		return parseInstant(t.TransactionDate, loc)
	default:
		if linked {
			return parseDay(appt.Date, loc)
		}
		return parseInstant(t.TransactionDate, loc)
	}
}

// sortedKeys returns map keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
