package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/database"
)

// Booking data only. Users and villas are kept.
var bookingTables = []string{
	"audit_logs",
	"blocked_dates",
	"reservations",
}

func main() {
	var (
		dbURLFlag string
		all       bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&all, "all", false, "also clear villas and users")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := bookingTables
	if all {
		tables = append(tables, "villas", "users")
	}

	fmt.Println("Connected to database. Truncating tables...")

	truncateSQL := "TRUNCATE TABLE "
	for i, t := range tables {
		if i > 0 {
			truncateSQL += ", "
		}
		truncateSQL += t
	}
	truncateSQL += " RESTART IDENTITY CASCADE"

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("Data cleared (tables truncated, identities reset).")

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
