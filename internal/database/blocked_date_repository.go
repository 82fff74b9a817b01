package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/villarent/reservation-api/internal/models"
)

// BlockedDateRepository handles owner-defined unavailable periods
type BlockedDateRepository struct {
	db *sqlx.DB
}

// NewBlockedDateRepository creates a new BlockedDateRepository
func NewBlockedDateRepository(db *sqlx.DB) *BlockedDateRepository {
	return &BlockedDateRepository{db: db}
}

// ListByVilla returns every blocked period of a villa ordered by start date
func (r *BlockedDateRepository) ListByVilla(ctx context.Context, villaID int64) ([]models.BlockedDate, error) {
	blocked := []models.BlockedDate{}
	query := `
		SELECT id, villa_id, start_date, end_date, reason, created_at
		FROM blocked_dates
		WHERE villa_id = $1
		ORDER BY start_date`

	if err := r.db.SelectContext(ctx, &blocked, query, villaID); err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	return blocked, nil
}

// Replace deletes every blocked period of the villa and inserts the given ones
// in a single transaction.
func (r *BlockedDateRepository) Replace(ctx context.Context, villaID int64, ranges []models.BlockedDate) ([]models.BlockedDate, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocked_dates WHERE villa_id = $1`, villaID); err != nil {
		return nil, fmt.Errorf("failed to clear blocked dates: %w", err)
	}

	insert := `
		INSERT INTO blocked_dates (villa_id, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	saved := make([]models.BlockedDate, 0, len(ranges))
	for _, b := range ranges {
		b.VillaID = villaID
		if err := tx.QueryRowxContext(ctx, insert, villaID, b.StartDate, b.EndDate, b.Reason).Scan(&b.ID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert blocked date: %w", err)
		}
		saved = append(saved, b)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit blocked dates: %w", err)
	}
	return saved, nil
}
