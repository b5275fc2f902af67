package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"service-platform-server/config"
)

type seedService struct {
	ServiceType string
	Description string
	BasePrice   float64
}

var serviceCatalog = []seedService{
	{"Plumbing", "Leak repair, fittings, pipe installation", 199},
	{"Electrical", "Wiring, switchboards, appliance installation", 249},
	{"Carpentry", "Furniture repair, fittings, woodwork", 199},
	{"Painting", "Interior and exterior painting", 299},
	{"Cleaning", "Deep home and office cleaning", 149},
	{"AC Repair", "AC servicing, gas refill, installation", 349},
	{"Appliance Repair", "Washing machine, fridge, microwave repair", 249},
	{"Pest Control", "Household pest treatment", 399},
}

// seedServices inserts the service catalog directly over database/sql so it
// can run before GORM models are touched. Existing rows are left alone.
func seedServices() error {
	cfg := config.AppConfig.Database
	dsn := cfg.URL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	inserted := 0
	for _, s := range serviceCatalog {
		result, err := db.Exec(`
			INSERT INTO services (service_type, description, base_price, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (service_type) DO NOTHING`,
			s.ServiceType, s.Description, s.BasePrice,
		)
		if err != nil {
			return fmt.Errorf("failed to seed service %s: %w", s.ServiceType, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	log.Printf("✅ Service catalog seeded (%d new of %d)", inserted, len(serviceCatalog))
	return nil
}
