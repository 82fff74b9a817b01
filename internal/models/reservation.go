package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================================================
// RESERVATION STATUS
// ============================================================================

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"   // Created, awaiting deposit payment
	ReservationStatusConfirmed ReservationStatus = "confirmed" // Deposit paid
	ReservationStatusCancelled ReservationStatus = "cancelled" // Released, dates available again
	ReservationStatusCompleted ReservationStatus = "completed" // Stay finished
)

// IsValid checks if the status is a known value
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

// ============================================================================
// RESERVATION
// ============================================================================

// Reservation is a guest booking of a villa for the half-open range [StartDate, EndDate)
type Reservation struct {
	ID              int64             `json:"id" db:"id"`
	VillaID         int64             `json:"villaId" db:"villa_id"`
	UserID          *uuid.UUID        `json:"userId,omitempty" db:"user_id"`
	GuestName       string            `json:"guestName" db:"guest_name"`
	GuestPhone      string            `json:"guestPhone" db:"guest_phone"`
	GuestEmail      *string           `json:"guestEmail,omitempty" db:"guest_email"`
	GuestsCount     int               `json:"guestsCount" db:"guests_count"`
	StartDate       Date              `json:"startDate" db:"start_date"`
	EndDate         Date              `json:"endDate" db:"end_date"`
	FeeAmount       decimal.Decimal   `json:"feeAmount" db:"fee_amount"`
	Currency        string            `json:"currency" db:"currency"`
	ReservationCode string            `json:"reservationCode" db:"reservation_code"`
	Status          ReservationStatus `json:"status" db:"status"`
	PaymentIntentID *string           `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	ConfirmedAt     *time.Time        `json:"confirmedAt,omitempty" db:"confirmed_at"`
	CancelledAt     *time.Time        `json:"cancelledAt,omitempty" db:"cancelled_at"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`

	// Denormalized from villas on reads
	VillaName       string `json:"villaName,omitempty" db:"villa_name"`
	VillaOwnerEmail string `json:"-" db:"villa_owner_email"`
}

// Nights returns the number of nights covered by the reservation
func (r *Reservation) Nights() int {
	return DaysBetween(r.StartDate.Time, r.EndDate.Time)
}

// ============================================================================
// REQUEST / RESPONSE DTOs
// ============================================================================

// CheckAvailabilityRequest asks whether a villa is free for [StartDate, EndDate)
type CheckAvailabilityRequest struct {
	VillaID   int64 `json:"villaId" binding:"required,min=1"`
	StartDate Date  `json:"startDate"`
	EndDate   Date  `json:"endDate"`
}

// CheckAvailabilityResponse is the availability verdict
type CheckAvailabilityResponse struct {
	Available bool `json:"available"`
}

// CreateReservationRequest is a guest booking request
type CreateReservationRequest struct {
	VillaID     int64   `json:"villaId" binding:"required,min=1"`
	GuestName   string  `json:"guestName" binding:"required,max=200"`
	GuestPhone  string  `json:"guestPhone" binding:"required,max=32"`
	GuestEmail  *string `json:"guestEmail,omitempty" binding:"omitempty,email,max=254"`
	GuestsCount int     `json:"guestsCount" binding:"omitempty,min=1,max=50"`
	StartDate   Date    `json:"startDate"`
	EndDate     Date    `json:"endDate"`
}

// CreateReservationResponse is returned after a successful booking.
// FeeAmount is rendered with exactly two decimal places.
type CreateReservationResponse struct {
	Message         string `json:"message"`
	ReservationCode string `json:"reservationCode"`
	FeeAmount       string `json:"feeAmount"`
	Currency        string `json:"currency"`
	ClientSecret    string `json:"clientSecret"`
}

// ReservationListResponse is a page of reservations
type ReservationListResponse struct {
	Reservations []Reservation `json:"reservations"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}
