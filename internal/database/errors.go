package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrDuplicateReservationCode is returned when a generated code is already taken
	ErrDuplicateReservationCode = errors.New("reservation code already exists")

	// ErrDatesUnavailable is returned when the requested range overlaps a blocked
	// period or an active reservation
	ErrDatesUnavailable = errors.New("requested dates are not available")

	// ErrEmailTaken is returned when registering an email that already has an account
	ErrEmailTaken = errors.New("email already registered")
)

// PostgreSQL error codes
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// Constraint names from schema.sql
const (
	reservationCodeConstraint    = "reservations_reservation_code_key"
	reservationOverlapConstraint = "reservations_no_overlap"
	userEmailConstraint          = "users_email_key"
)

// constraintViolation extracts the SQLSTATE and constraint name from a driver
// error, whichever driver produced it.
func constraintViolation(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}

	return "", "", false
}

// classifyReservationInsertError maps constraint violations on the reservations
// table to sentinel errors. Other errors are returned unchanged.
func classifyReservationInsertError(err error) error {
	code, constraint, ok := constraintViolation(err)
	if !ok {
		return err
	}

	switch {
	case code == pgUniqueViolation && constraint == reservationCodeConstraint:
		return ErrDuplicateReservationCode
	case code == pgExclusionViolation || constraint == reservationOverlapConstraint:
		return ErrDatesUnavailable
	}
	return err
}

// classifyUserInsertError maps a duplicate email to ErrEmailTaken
func classifyUserInsertError(err error) error {
	code, constraint, ok := constraintViolation(err)
	if ok && code == pgUniqueViolation && constraint == userEmailConstraint {
		return ErrEmailTaken
	}
	return err
}
