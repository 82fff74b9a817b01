package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/villarent/reservation-api/internal/models"
)

// VillaRepository handles villa reads needed by the booking engine
type VillaRepository struct {
	db *sqlx.DB
}

// NewVillaRepository creates a new VillaRepository
func NewVillaRepository(db *sqlx.DB) *VillaRepository {
	return &VillaRepository{db: db}
}

const villaColumns = `id, name, region, description, price_per_night, owner_email, created_at, updated_at`

// GetByID retrieves a villa by ID. Returns nil, nil when it does not exist.
func (r *VillaRepository) GetByID(ctx context.Context, id int64) (*models.Villa, error) {
	var villa models.Villa
	query := `SELECT ` + villaColumns + ` FROM villas WHERE id = $1`

	err := r.db.GetContext(ctx, &villa, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get villa: %w", err)
	}

	return &villa, nil
}
