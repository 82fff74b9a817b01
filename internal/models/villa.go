package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Villa is a bookable property
type Villa struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Region        string          `json:"region" db:"region"`
	Description   *string         `json:"description,omitempty" db:"description"`
	PricePerNight decimal.Decimal `json:"pricePerNight" db:"price_per_night"`
	OwnerEmail    string          `json:"ownerEmail" db:"owner_email"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsOwnedBy reports whether the given email belongs to the villa owner
func (v *Villa) IsOwnedBy(email string) bool {
	return email != "" && strings.EqualFold(v.OwnerEmail, email)
}
