package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/models"
)

// AvailabilityStore answers range queries against blocked dates and active reservations
type AvailabilityStore interface {
	IsRangeAvailable(ctx context.Context, villaID int64, start, end time.Time) (bool, error)
}

// AvailabilityService decides whether a villa is free for a half-open date range
type AvailabilityService struct {
	store  AvailabilityStore
	logger *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(store AvailabilityStore, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, logger: logger}
}

// NormalizeRange strips the time of day from both ends and rejects ranges
// where end is not strictly after start.
func NormalizeRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, newError(KindInvalidRange, "Start and end dates are required", nil)
	}
	s, e := models.NormalizeDate(start), models.NormalizeDate(end)
	if !e.After(s) {
		return time.Time{}, time.Time{}, newError(KindInvalidRange, "End date must be after start date", nil)
	}
	return s, e, nil
}

// Overlaps reports whether [a0, a1) and [b0, b1) intersect
func Overlaps(a0, a1, b0, b1 time.Time) bool {
	return a0.Before(b1) && b0.Before(a1)
}

// IsAvailable returns true when [start, end) overlaps no blocked period and no
// reservation that is not cancelled.
func (s *AvailabilityService) IsAvailable(ctx context.Context, villaID int64, start, end time.Time) (bool, error) {
	from, to, err := NormalizeRange(start, end)
	if err != nil {
		return false, err
	}

	available, err := s.store.IsRangeAvailable(ctx, villaID, from, to)
	if err != nil {
		s.logger.WithError(err).WithField("villa_id", villaID).Error("Availability check failed")
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"villa_id":  villaID,
		"start":     from.Format(models.DateLayout),
		"end":       to.Format(models.DateLayout),
		"available": available,
	}).Debug("Availability checked")

	return available, nil
}
