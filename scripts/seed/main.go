// Command seed loads a demo grooming shop into Postgres so reports have data.
//
//	go run ./scripts/seed -org demo-shop -days 120
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
)

type service struct {
	id, name, category string
	minutes            int
	cents              int64
}

type staffMember struct {
	id, name, model string
	commission      float64
	hourlyCents     int64
}

var (
	services = []service{
		{"svc-bath", "Bath & Brush", "bath", 45, 4500},
		{"svc-groom", "Full Groom", "groom", 90, 8500},
		{"svc-nails", "Nail Trim", "add-on", 15, 1500},
		{"svc-deshed", "De-Shed Treatment", "bath", 60, 6500},
	}
	staff = []staffMember{
		{"stf-riley", "Riley", "commission", 45, 0},
		{"stf-alex", "Alex", "hourly", 0, 2200},
		{"stf-sam", "Sam", "commission", 40, 0},
	}
	petSizes = []string{"small", "medium", "large", "giant"}
	channels = []string{"online", "phone", "walk-in"}
	methods  = []string{"card", "card", "card", "cash", "gift_card"}
	names    = []string{"Dana Park", "Luis Ortega", "Priya Shah", "Morgan Lee", "Casey Quinn", "Jordan Blake", "Avery Chen", "Taylor Brooks"}
)

func main() {
	_ = godotenv.Load()
	orgID := flag.String("org", "demo-shop", "org id to seed")
	days := flag.Int("days", 120, "days of history ending today")
	customers := flag.Int("customers", 60, "number of customers")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		fmt.Println("Error: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Printf("Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	rng := rand.New(rand.NewSource(*seed))
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return seedShop(ctx, tx, rng, *orgID, *days, *customers, time.Now())
	})
	if err != nil {
		fmt.Printf("Error seeding %s: %v\n", *orgID, err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %s with %d customers over %d days\n", *orgID, *customers, *days)
}

func seedShop(ctx context.Context, tx pgx.Tx, rng *rand.Rand, orgID string, days, customers int, now time.Time) error {
	for _, table := range []string{"transactions", "appointments", "customers", "staff", "services"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE org_id = $1", orgID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO orgs (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, orgID, "Demo Grooming"); err != nil {
		return fmt.Errorf("insert org: %w", err)
	}

	for _, s := range services {
		if _, err := tx.Exec(ctx, `INSERT INTO services (org_id, id, name, category, duration_minutes, price_cents) VALUES ($1,$2,$3,$4,$5,$6)`,
			orgID, s.id, s.name, s.category, s.minutes, s.cents); err != nil {
			return fmt.Errorf("insert service %s: %w", s.id, err)
		}
	}
	for _, m := range staff {
		var commission *float64
		var hourly *int64
		if m.model == "commission" {
			commission = &m.commission
		} else {
			hourly = &m.hourlyCents
		}
		if _, err := tx.Exec(ctx, `INSERT INTO staff (org_id, id, name, pay_model, commission_pct, hourly_rate_cents) VALUES ($1,$2,$3,$4,$5,$6)`,
			orgID, m.id, m.name, m.model, commission, hourly); err != nil {
			return fmt.Errorf("insert staff %s: %w", m.id, err)
		}
	}

	start := now.AddDate(0, 0, -days)
	apptSeq := 0
	for c := 0; c < customers; c++ {
		custID := fmt.Sprintf("cus-%03d", c+1)
		first, last, _ := strings.Cut(names[c%len(names)], " ")
		if _, err := tx.Exec(ctx, `INSERT INTO customers (org_id, id, first_name, last_name, created_at) VALUES ($1,$2,$3,$4,$5)`,
			orgID, custID, first, last, start); err != nil {
			return fmt.Errorf("insert customer %s: %w", custID, err)
		}

		size := petSizes[rng.Intn(len(petSizes))]
		visit := start.AddDate(0, 0, rng.Intn(30))
		booked := visit.AddDate(0, 0, -rng.Intn(14)-1)
		for visit.Before(now.AddDate(0, 0, 21)) {
			apptSeq++
			if err := seedVisit(ctx, tx, rng, orgID, custID, size, apptSeq, visit, booked, now); err != nil {
				return err
			}
			// the next booking is usually made at checkout
			booked = visit.Add(time.Duration(rng.Intn(48)) * time.Hour)
			visit = visit.AddDate(0, 0, 21+rng.Intn(50))
		}
	}
	return nil
}

func seedVisit(ctx context.Context, tx pgx.Tx, rng *rand.Rand, orgID, custID, size string, seq int, visit, booked, now time.Time) error {
	svc := services[rng.Intn(len(services))]
	groomer := staff[rng.Intn(len(staff))]
	apptID := fmt.Sprintf("apt-%05d", seq)

	status := "scheduled"
	if visit.Before(now) {
		switch r := rng.Intn(100); {
		case r < 7:
			status = "no_show"
		case r < 14:
			status = "cancelled"
		default:
			status = "completed"
		}
	}
	var discount *int64
	if rng.Intn(5) == 0 {
		d := svc.cents / 10
		discount = &d
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO appointments (org_id, id, customer_id, pet_id, pet_name, pet_size, service_id, service_name, staff_id,
		                          scheduled_date, start_time, duration_minutes, status, price_cents, discount_cents, channel, booked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		orgID, apptID, custID, custID+"-pet", "Biscuit", size, svc.id, svc.name, groomer.id,
		visit, fmt.Sprintf("%02d:00", 8+rng.Intn(9)), svc.minutes, status, svc.cents, discount,
		channels[rng.Intn(len(channels))], booked,
	); err != nil {
		return fmt.Errorf("insert appointment %s: %w", apptID, err)
	}
	if status != "completed" {
		return nil
	}

	subtotal := svc.cents
	var discountCents int64
	if discount != nil {
		discountCents = *discount
	}
	tip := int64(rng.Intn(4)) * 500
	tax := (subtotal - discountCents) * 7 / 100
	items, err := json.Marshal([]records.StoredLineItem{
		{Type: "service", Name: svc.name, Quantity: 1, UnitPriceCents: svc.cents},
	})
	if err != nil {
		return err
	}
	checkout := visit.Add(time.Duration(svc.minutes+30) * time.Minute)
	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (org_id, id, checkout_at, created_at, appointment_id, customer_id, staff_id, items,
		                          subtotal_cents, discount_cents, tax_cents, tip_cents, total_cents, payment_method, status)
		VALUES ($1,$2,$3,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,'completed')`,
		orgID, "txn-"+apptID, checkout, apptID, custID, groomer.id, items,
		subtotal, discountCents, tax, tip, subtotal-discountCents+tax+tip, methods[rng.Intn(len(methods))],
	); err != nil {
		return fmt.Errorf("insert transaction for %s: %w", apptID, err)
	}
	return nil
}
