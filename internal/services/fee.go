package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/villarent/reservation-api/internal/models"
)

// Nights returns the number of nights in the half-open stay [start, end)
func Nights(start, end time.Time) int {
	return models.DaysBetween(models.NormalizeDate(start), models.NormalizeDate(end))
}

// CalculateDepositFee returns price * nights * rate rounded to cents, half away from zero
func CalculateDepositFee(pricePerNight decimal.Decimal, nights int, rate decimal.Decimal) decimal.Decimal {
	total := pricePerNight.Mul(decimal.NewFromInt(int64(nights)))
	return total.Mul(rate).Round(2)
}

// ReservationCodePrefix starts every public reservation code
const ReservationCodePrefix = "VR-"

var reservationCodePattern = regexp.MustCompile(`^VR-[0-9A-Z]{8}$`)

// NewReservationCode derives a code like VR-1A2B3C4D from a random UUID
func NewReservationCode() string {
	return ReservationCodePrefix + strings.ToUpper(uuid.NewString()[:8])
}

// IsReservationCode checks the public code format
func IsReservationCode(code string) bool {
	return reservationCodePattern.MatchString(code)
}
