package models

import "time"

// BlockedDate is an owner-defined period during which a villa cannot be booked.
// StartDate and EndDate are both inclusive.
type BlockedDate struct {
	ID        int64     `json:"id" db:"id"`
	VillaID   int64     `json:"villaId" db:"villa_id"`
	StartDate Date      `json:"startDate" db:"start_date"`
	EndDate   Date      `json:"endDate" db:"end_date"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// HalfOpenEnd returns the exclusive end of the blocked period
func (b *BlockedDate) HalfOpenEnd() time.Time {
	return b.EndDate.AddDate(0, 0, 1)
}

// BlockedRangeInput is one range in a replace request
type BlockedRangeInput struct {
	StartDate Date    `json:"startDate"`
	EndDate   Date    `json:"endDate"`
	Reason    *string `json:"reason,omitempty" binding:"omitempty,max=255"`
}

// ReplaceBlockedDatesRequest replaces every blocked range of a villa
type ReplaceBlockedDatesRequest struct {
	Ranges []BlockedRangeInput `json:"ranges" binding:"dive"`
}
