package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/database"
)

func main() {
	var (
		dbURLFlag  string
		driverFlag string
		printOnly  bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driverFlag, "driver", "pgx", `database driver: "pgx" or "postgres"`)
	flag.BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	flag.Parse()

	if printOnly {
		os.Stdout.WriteString(database.Schema())
		return
	}

	// Optional .env in the working directory
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := database.NewConnection(config.DatabaseConfig{
		Driver:             driverFlag,
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db.DB); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
	logger.Info("Schema applied")
}
