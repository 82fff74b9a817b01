package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/models"
)

// BlockedDateStore persists owner-defined blocked periods
type BlockedDateStore interface {
	ListByVilla(ctx context.Context, villaID int64) ([]models.BlockedDate, error)
	Replace(ctx context.Context, villaID int64, ranges []models.BlockedDate) ([]models.BlockedDate, error)
}

// BlockedDateService manages the periods in which a villa cannot be booked
type BlockedDateService struct {
	blocked BlockedDateStore
	villas  VillaStore
	logger  *logrus.Logger
}

// NewBlockedDateService creates a new BlockedDateService
func NewBlockedDateService(blocked BlockedDateStore, villas VillaStore, logger *logrus.Logger) *BlockedDateService {
	return &BlockedDateService{blocked: blocked, villas: villas, logger: logger}
}

// List returns the blocked periods of a villa
func (s *BlockedDateService) List(ctx context.Context, villaID int64) ([]models.BlockedDate, error) {
	return s.blocked.ListByVilla(ctx, villaID)
}

// Replace swaps every blocked period of the villa for the given ranges.
// Only the villa owner or an admin may do this. Ranges are inclusive on both
// ends and must not overlap each other.
func (s *BlockedDateService) Replace(ctx context.Context, principal *models.Principal, villaID int64, input []models.BlockedRangeInput) ([]models.BlockedDate, error) {
	villa, err := s.villas.GetByID(ctx, villaID)
	if err != nil {
		return nil, err
	}
	if villa == nil {
		return nil, newError(KindNotFound, "Villa not found", nil)
	}
	if !principal.CanManageVilla(villa) {
		return nil, newError(KindForbidden, "You do not manage this villa", nil)
	}

	ranges := make([]models.BlockedDate, 0, len(input))
	for i, in := range input {
		if in.StartDate.IsZero() || in.EndDate.IsZero() {
			return nil, newError(KindInvalidRange, fmt.Sprintf("Range %d: start and end dates are required", i+1), nil)
		}
		start := models.NormalizeDate(in.StartDate.Time)
		end := models.NormalizeDate(in.EndDate.Time)
		if end.Before(start) {
			return nil, newError(KindInvalidRange, fmt.Sprintf("Range %d: end date must not be before start date", i+1), nil)
		}
		ranges = append(ranges, models.BlockedDate{
			VillaID:   villaID,
			StartDate: models.Date{Time: start},
			EndDate:   models.Date{Time: end},
			Reason:    in.Reason,
		})
	}

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].StartDate.Before(ranges[j].StartDate.Time)
	})
	for i := 1; i < len(ranges); i++ {
		prev, cur := &ranges[i-1], &ranges[i]
		if Overlaps(prev.StartDate.Time, prev.HalfOpenEnd(), cur.StartDate.Time, cur.HalfOpenEnd()) {
			return nil, newError(KindInvalidRange, fmt.Sprintf("Blocked ranges %s..%s and %s..%s overlap",
				prev.StartDate, prev.EndDate, cur.StartDate, cur.EndDate), nil)
		}
	}

	saved, err := s.blocked.Replace(ctx, villaID, ranges)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"villa_id": villaID,
		"ranges":   len(saved),
	}).Info("Blocked dates replaced")
	return saved, nil
}
