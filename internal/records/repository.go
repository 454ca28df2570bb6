package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// ErrOrgRequired is returned when a load is attempted without an org id.
var ErrOrgRequired = errors.New("records: org_id required")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository loads canonical records for an org from Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a records repository. pgxpool.Pool satisfies DB.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("records: db required")
	}
	return &Repository{db: db}
}

// LoadSnapshot reads every record set for the org concurrently and returns them
// in canonical form.
func (r *Repository) LoadSnapshot(ctx context.Context, orgID string) (*Snapshot, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, ErrOrgRequired
	}

	snap := &Snapshot{OrgID: orgID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snap.Appointments, err = r.Appointments(ctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Transactions, err = r.Transactions(ctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Services, err = r.Services(ctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Staff, err = r.Staff(ctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Customers, err = r.Customers(ctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Version, err = r.DataVersion(ctx, orgID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.Customers = LinkCustomerAppointments(snap.Customers, snap.Appointments)
	return snap, nil
}

// Appointments returns the org's appointments ordered by date and time.
func (r *Repository) Appointments(ctx context.Context, orgID string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, pet_id, pet_name, pet_size, service_id, service_name, staff_id,
		       scheduled_date, start_time, duration_minutes, status, price_cents, discount_cents,
		       channel, booked_at, notes
		FROM appointments
		WHERE org_id = $1
		ORDER BY scheduled_date, start_time, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("records: load appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var s StoredAppointment
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.PetID, &s.PetName, &s.PetSize, &s.ServiceID, &s.ServiceName, &s.StaffID,
			&s.ScheduledDate, &s.StartTime, &s.DurationMinutes, &s.Status, &s.PriceCents, &s.DiscountCents,
			&s.Channel, &s.BookedAt, &s.Notes,
		); err != nil {
			return nil, fmt.Errorf("records: scan appointment: %w", err)
		}
		out = append(out, NormalizeAppointment(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate appointments: %w", err)
	}
	return out, nil
}

// Transactions returns the org's checkouts ordered by creation time.
func (r *Repository) Transactions(ctx context.Context, orgID string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, checkout_at, created_at, appointment_id, customer_id, staff_id, items,
		       subtotal_cents, discount_cents, tax_cents, tip_cents, total_cents,
		       payment_method, status, refund_cents
		FROM transactions
		WHERE org_id = $1
		ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("records: load transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var s StoredTransaction
		if err := rows.Scan(
			&s.ID, &s.CheckoutAt, &s.CreatedAt, &s.AppointmentID, &s.CustomerID, &s.StaffID, &s.Items,
			&s.SubtotalCents, &s.DiscountCents, &s.TaxCents, &s.TipCents, &s.TotalCents,
			&s.PaymentMethod, &s.Status, &s.RefundCents,
		); err != nil {
			return nil, fmt.Errorf("records: scan transaction: %w", err)
		}
		txn, err := NormalizeTransaction(s)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate transactions: %w", err)
	}
	return out, nil
}

// Services returns the org's service menu.
func (r *Repository) Services(ctx context.Context, orgID string) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, category, duration_minutes, price_cents
		FROM services
		WHERE org_id = $1
		ORDER BY name, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("records: load services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s StoredService
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.DurationMinutes, &s.PriceCents); err != nil {
			return nil, fmt.Errorf("records: scan service: %w", err)
		}
		out = append(out, NormalizeService(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate services: %w", err)
	}
	return out, nil
}

// Staff returns the org's staff with compensation attributes.
func (r *Repository) Staff(ctx context.Context, orgID string) ([]Staff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, pay_model, commission_pct, hourly_rate_cents, annual_salary_cents,
		       guarantee_enabled, guarantee_cents, guarantee_payout
		FROM staff
		WHERE org_id = $1
		ORDER BY name, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("records: load staff: %w", err)
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var s StoredStaff
		if err := rows.Scan(
			&s.ID, &s.Name, &s.PayModel, &s.CommissionPct, &s.HourlyRateCents, &s.AnnualSalaryCents,
			&s.GuaranteeEnabled, &s.GuaranteeCents, &s.GuaranteePayout,
		); err != nil {
			return nil, fmt.Errorf("records: scan staff: %w", err)
		}
		out = append(out, NormalizeStaff(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate staff: %w", err)
	}
	return out, nil
}

// Customers returns the org's customers.
func (r *Repository) Customers(ctx context.Context, orgID string) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, created_at
		FROM customers
		WHERE org_id = $1
		ORDER BY id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("records: load customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var s StoredCustomer
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("records: scan customer: %w", err)
		}
		out = append(out, NormalizeCustomer(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate customers: %w", err)
	}
	return out, nil
}

// DataVersion returns a token that changes whenever any of the org's records
// change. It is the latest updated_at across the record tables.
func (r *Repository) DataVersion(ctx context.Context, orgID string) (string, error) {
	var latest time.Time
	err := r.db.QueryRow(ctx, `
		SELECT GREATEST(
			COALESCE((SELECT MAX(updated_at) FROM appointments WHERE org_id = $1), 'epoch'::timestamptz),
			COALESCE((SELECT MAX(updated_at) FROM transactions WHERE org_id = $1), 'epoch'::timestamptz),
			COALESCE((SELECT MAX(updated_at) FROM services WHERE org_id = $1), 'epoch'::timestamptz),
			COALESCE((SELECT MAX(updated_at) FROM staff WHERE org_id = $1), 'epoch'::timestamptz),
			COALESCE((SELECT MAX(updated_at) FROM customers WHERE org_id = $1), 'epoch'::timestamptz)
		)`, orgID).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("records: data version: %w", err)
	}
	return latest.UTC().Format(time.RFC3339Nano), nil
}

// ListOrgIDs returns every org that has a shop profile.
func (r *Repository) ListOrgIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM orgs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("records: list orgs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("records: scan org: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate orgs: %w", err)
	}
	return ids, nil
}
