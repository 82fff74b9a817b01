package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/villarent/reservation-api/internal/models"
)

// ReservationRepository handles reservation persistence and availability queries
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationSelect = `
		SELECT
			r.id, r.villa_id, r.user_id, r.guest_name, r.guest_phone, r.guest_email,
			r.guests_count, r.start_date, r.end_date, r.fee_amount, r.currency,
			r.reservation_code, r.status, r.payment_intent_id, r.confirmed_at,
			r.cancelled_at, r.created_at, r.updated_at,
			v.name AS villa_name, v.owner_email AS villa_owner_email
		FROM reservations r
		JOIN villas v ON v.id = r.villa_id`

// availabilityQuery is true when [$2, $3) touches neither a blocked period nor
// a non-cancelled reservation of villa $1. Blocked periods are stored inclusive,
// so [b.start, b.end] overlaps [$2, $3) iff b.start < $3 AND $2 <= b.end.
const availabilityQuery = `
		SELECT
			NOT EXISTS (
				SELECT 1 FROM blocked_dates b
				WHERE b.villa_id = $1 AND b.start_date < $3 AND $2 <= b.end_date
			)
			AND NOT EXISTS (
				SELECT 1 FROM reservations r
				WHERE r.villa_id = $1 AND r.status <> 'cancelled'
				  AND r.start_date < $3 AND $2 < r.end_date
			)`

// ============================================================================
// AVAILABILITY
// ============================================================================

// IsRangeAvailable checks [start, end) against blocked dates and active reservations.
// start and end must be normalized dates.
func (r *ReservationRepository) IsRangeAvailable(ctx context.Context, villaID int64, start, end time.Time) (bool, error) {
	return isRangeAvailable(ctx, r.db, villaID, start, end)
}

func isRangeAvailable(ctx context.Context, q sqlx.QueryerContext, villaID int64, start, end time.Time) (bool, error) {
	var available bool
	if err := sqlx.GetContext(ctx, q, &available, availabilityQuery, villaID, start, end); err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return available, nil
}

// ============================================================================
// CREATE
// ============================================================================

// CreateIfAvailable inserts a pending reservation only if its range is still free.
// The check and the insert run in one transaction holding a per-villa advisory
// lock, so concurrent bookings of the same villa are serialized; the exclusion
// constraint on the table rejects anything that slips past.
//
// Returns ErrDatesUnavailable or ErrDuplicateReservationCode on conflict.
func (r *ReservationRepository) CreateIfAvailable(ctx context.Context, res *models.Reservation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, res.VillaID); err != nil {
		return fmt.Errorf("failed to lock villa: %w", err)
	}

	available, err := isRangeAvailable(ctx, tx, res.VillaID, res.StartDate.Time, res.EndDate.Time)
	if err != nil {
		return err
	}
	if !available {
		return ErrDatesUnavailable
	}

	query := `
		INSERT INTO reservations (
			villa_id, user_id, guest_name, guest_phone, guest_email, guests_count,
			start_date, end_date, fee_amount, currency, reservation_code, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		res.VillaID, res.UserID, res.GuestName, res.GuestPhone, res.GuestEmail, res.GuestsCount,
		res.StartDate, res.EndDate, res.FeeAmount, res.Currency, res.ReservationCode, res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if classified := classifyReservationInsertError(err); classified != err {
			return classified
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", classifyReservationInsertError(err))
	}
	return nil
}

// AttachPaymentIntent records the processor payment intent for a reservation
func (r *ReservationRepository) AttachPaymentIntent(ctx context.Context, code, paymentIntentID string) error {
	query := `
		UPDATE reservations
		SET payment_intent_id = $2, updated_at = NOW()
		WHERE reservation_code = $1`

	if _, err := r.db.ExecContext(ctx, query, code, paymentIntentID); err != nil {
		return fmt.Errorf("failed to attach payment intent: %w", err)
	}
	return nil
}

// ============================================================================
// READS
// ============================================================================

// GetByID retrieves a reservation by ID. Returns nil, nil when not found.
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.getOne(ctx, reservationSelect+` WHERE r.id = $1`, id)
}

// GetByCode retrieves a reservation by its public code. Returns nil, nil when not found.
func (r *ReservationRepository) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	return r.getOne(ctx, reservationSelect+` WHERE r.reservation_code = $1`, code)
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.GetContext(ctx, &res, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

// List returns reservations newest first
func (r *ReservationRepository) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	query := reservationSelect + ` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx, &reservations, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// ListByVilla returns every reservation of a villa ordered by start date
func (r *ReservationRepository) ListByVilla(ctx context.Context, villaID int64) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	query := reservationSelect + ` WHERE r.villa_id = $1 ORDER BY r.start_date`

	if err := r.db.SelectContext(ctx, &reservations, query, villaID); err != nil {
		return nil, fmt.Errorf("failed to list villa reservations: %w", err)
	}
	return reservations, nil
}

// ReservedRanges returns the half-open ranges of active reservations that end after from
func (r *ReservationRepository) ReservedRanges(ctx context.Context, villaID int64, from time.Time) ([]models.DateRange, error) {
	ranges := []models.DateRange{}
	query := `
		SELECT start_date, end_date
		FROM reservations
		WHERE villa_id = $1 AND status <> 'cancelled' AND end_date > $2
		ORDER BY start_date`

	if err := r.db.SelectContext(ctx, &ranges, query, villaID, from); err != nil {
		return nil, fmt.Errorf("failed to list reserved ranges: %w", err)
	}
	return ranges, nil
}

// ============================================================================
// STATUS TRANSITIONS
// ============================================================================

// ConfirmByCode moves a pending reservation to confirmed. Returns false when the
// code is unknown or the reservation is not pending, so repeated deliveries of
// the same payment event confirm at most once.
func (r *ReservationRepository) ConfirmByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'confirmed',
			confirmed_at = NOW(),
			updated_at = NOW(),
			payment_intent_id = COALESCE($2, payment_intent_id)
		WHERE reservation_code = $1 AND status = 'pending'`

	return r.execTransition(ctx, query, code, paymentIntentID)
}

// ReinstateByCode confirms a cancelled reservation whose payment arrived late,
// provided its range is still free. It takes the same per-villa advisory lock as
// CreateIfAvailable. Returns false when the code is unknown, the reservation is
// not cancelled, or the dates have been booked or blocked in the meantime.
func (r *ReservationRepository) ReinstateByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var target struct {
		VillaID   int64     `db:"villa_id"`
		StartDate time.Time `db:"start_date"`
		EndDate   time.Time `db:"end_date"`
	}
	err = tx.GetContext(ctx, &target, `
		SELECT villa_id, start_date, end_date
		FROM reservations
		WHERE reservation_code = $1 AND status = 'cancelled'
		FOR UPDATE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load cancelled reservation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, target.VillaID); err != nil {
		return false, fmt.Errorf("failed to lock villa: %w", err)
	}

	// Cancelled rows are ignored by the availability check, including this one
	available, err := isRangeAvailable(ctx, tx, target.VillaID, target.StartDate, target.EndDate)
	if err != nil {
		return false, err
	}
	if !available {
		return false, nil
	}

	query := `
		UPDATE reservations
		SET status = 'confirmed',
			confirmed_at = NOW(),
			cancelled_at = NULL,
			updated_at = NOW(),
			payment_intent_id = COALESCE($2, payment_intent_id)
		WHERE reservation_code = $1 AND status = 'cancelled'`

	if _, err := tx.ExecContext(ctx, query, code, paymentIntentID); err != nil {
		if errors.Is(classifyReservationInsertError(err), ErrDatesUnavailable) {
			return false, nil
		}
		return false, fmt.Errorf("failed to reinstate reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(classifyReservationInsertError(err), ErrDatesUnavailable) {
			return false, nil
		}
		return false, fmt.Errorf("failed to commit reinstatement: %w", err)
	}
	return true, nil
}

// ConfirmByID moves a pending reservation to confirmed
func (r *ReservationRepository) ConfirmByID(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'confirmed', confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	return r.execTransition(ctx, query, id)
}

// Cancel releases a pending or confirmed reservation
func (r *ReservationRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`

	return r.execTransition(ctx, query, id)
}

// CancelStalePending cancels pending reservations created before cutoff and
// returns how many were released.
func (r *ReservationRepository) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale reservations: %w", err)
	}
	return result.RowsAffected()
}

func (r *ReservationRepository) execTransition(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update reservation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}
