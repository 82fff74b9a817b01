package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/database"
	"github.com/villarent/reservation-api/internal/logging"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
)

// Read-only smoke check of the booking services against a live database.
func main() {
	villaID := flag.Int64("villa", 1, "villa to check")
	start := flag.String("start", time.Now().AddDate(0, 0, 30).Format(models.DateLayout), "check-in date (YYYY-MM-DD)")
	nights := flag.Int("nights", 3, "number of nights")
	flag.Parse()

	fmt.Println("=== Reservation services smoke test ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Server, cfg.Log)

	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Database connected")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checkIn, err := models.ParseDate(*start)
	if err != nil {
		log.Fatalf("Invalid -start: %v", err)
	}
	checkOut := models.Date{Time: checkIn.AddDate(0, 0, *nights)}

	// Test 1: villa lookup
	fmt.Println("\nTest 1: villa lookup")
	villa, err := database.NewVillaRepository(db.DB).GetByID(ctx, *villaID)
	if err != nil {
		log.Fatalf("  failed: %v", err)
	}
	if villa == nil {
		log.Fatalf("  villa %d not found", *villaID)
	}
	fmt.Printf("  %s, %s per night, owner %s\n", villa.Name, villa.PricePerNight.StringFixed(2), villa.OwnerEmail)

	// Test 2: availability
	fmt.Println("\nTest 2: availability")
	reservations := database.NewReservationRepository(db.DB)
	available, err := services.NewAvailabilityService(reservations, logger).IsAvailable(ctx, *villaID, checkIn.Time, checkOut.Time)
	if err != nil {
		log.Fatalf("  failed: %v", err)
	}
	fmt.Printf("  %s..%s available: %v\n", checkIn, checkOut, available)

	// Test 3: deposit pricing
	fmt.Println("\nTest 3: deposit")
	fee := services.CalculateDepositFee(villa.PricePerNight, *nights, cfg.Booking.DepositRate)
	fmt.Printf("  %d nights at %s%% deposit: %s %s (%d minor units)\n",
		*nights, cfg.Booking.DepositRate.Shift(2).String(), fee.StringFixed(2), cfg.Booking.Currency, services.ToMinorUnits(fee))

	// Test 4: reserved ranges
	fmt.Println("\nTest 4: reserved ranges")
	ranges, err := reservations.ReservedRanges(ctx, *villaID, time.Now())
	if err != nil {
		log.Fatalf("  failed: %v", err)
	}
	for _, r := range ranges {
		fmt.Printf("  %s..%s\n", r.StartDate, r.EndDate)
	}
	fmt.Printf("  %d upcoming ranges\n", len(ranges))

	fmt.Println("\nAll checks completed")
}
