package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/villarent/reservation-api/internal/mocks"
	"github.com/villarent/reservation-api/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	// Existing reservation 2025-02-01..2025-02-05
	existingStart, existingEnd := day(2025, 2, 1), day(2025, 2, 5)

	tests := []struct {
		name       string
		start, end time.Time
		overlaps   bool
	}{
		{"Overlap on the last night", day(2025, 2, 4), day(2025, 2, 6), true},
		{"Check-in on checkout day", day(2025, 2, 5), day(2025, 2, 7), false},
		{"Checkout on check-in day", day(2025, 1, 28), day(2025, 2, 1), false},
		{"Contained", day(2025, 2, 2), day(2025, 2, 3), true},
		{"Containing", day(2025, 1, 30), day(2025, 2, 10), true},
		{"Identical", existingStart, existingEnd, true},
		{"Disjoint before", day(2025, 1, 1), day(2025, 1, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, Overlaps(tt.start, tt.end, existingStart, existingEnd))
			assert.Equal(t, tt.overlaps, Overlaps(existingStart, existingEnd, tt.start, tt.end))
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)

	t.Run("Strips time of day", func(t *testing.T) {
		start, end, err := NormalizeRange(
			time.Date(2025, 3, 1, 15, 30, 0, 0, lisbon),
			time.Date(2025, 3, 4, 0, 30, 0, 0, lisbon),
		)
		require.NoError(t, err)
		assert.Equal(t, day(2025, 3, 1), start)
		assert.Equal(t, day(2025, 3, 4), end)
	})

	t.Run("Same day is rejected", func(t *testing.T) {
		_, _, err := NormalizeRange(
			time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
		)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("End before start is rejected", func(t *testing.T) {
		_, _, err := NormalizeRange(day(2025, 3, 5), day(2025, 3, 1))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Missing date is rejected", func(t *testing.T) {
		_, _, err := NormalizeRange(time.Time{}, day(2025, 3, 1))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestAvailabilityService_IsAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("Queries normalized range", func(t *testing.T) {
		store := new(mocks.ReservationStore)
		store.On("IsRangeAvailable", ctx, int64(7), day(2025, 2, 5), day(2025, 2, 7)).Return(true, nil)

		svc := NewAvailabilityService(store, newTestLogger())
		available, err := svc.IsAvailable(ctx, 7, day(2025, 2, 5).Add(10*time.Hour), day(2025, 2, 7))

		require.NoError(t, err)
		assert.True(t, available)
		store.AssertExpectations(t)
	})

	t.Run("Invalid range never reaches the store", func(t *testing.T) {
		store := new(mocks.ReservationStore)
		svc := NewAvailabilityService(store, newTestLogger())

		_, err := svc.IsAvailable(ctx, 7, day(2025, 2, 7), day(2025, 2, 5))
		assert.Equal(t, KindInvalidRange, KindOf(err))
		store.AssertNotCalled(t, "IsRangeAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Store error propagates", func(t *testing.T) {
		store := new(mocks.ReservationStore)
		store.On("IsRangeAvailable", ctx, int64(7), mock.Anything, mock.Anything).Return(false, errors.New("db down"))

		svc := NewAvailabilityService(store, newTestLogger())
		_, err := svc.IsAvailable(ctx, 7, day(2025, 2, 5), day(2025, 2, 7))
		assert.EqualError(t, err, "db down")
	})
}

// memoryAvailability answers availability from in-memory reservations and
// blocked periods, applying the same rules as the SQL query
type memoryAvailability struct {
	reservations []models.Reservation
	blocked      []models.BlockedDate
}

func (m *memoryAvailability) IsRangeAvailable(_ context.Context, villaID int64, start, end time.Time) (bool, error) {
	for _, r := range m.reservations {
		if r.VillaID != villaID || r.Status == models.ReservationStatusCancelled {
			continue
		}
		if Overlaps(start, end, r.StartDate.Time, r.EndDate.Time) {
			return false, nil
		}
	}
	for i := range m.blocked {
		b := &m.blocked[i]
		if b.VillaID == villaID && Overlaps(start, end, b.StartDate.Time, b.HalfOpenEnd()) {
			return false, nil
		}
	}
	return true, nil
}

func TestAvailabilityService_HalfOpenRanges(t *testing.T) {
	ctx := context.Background()
	store := &memoryAvailability{
		reservations: []models.Reservation{
			{VillaID: 7, StartDate: models.NewDate(2025, 2, 1), EndDate: models.NewDate(2025, 2, 5), Status: models.ReservationStatusConfirmed},
			{VillaID: 7, StartDate: models.NewDate(2025, 4, 1), EndDate: models.NewDate(2025, 4, 5), Status: models.ReservationStatusCancelled},
			{VillaID: 8, StartDate: models.NewDate(2025, 2, 1), EndDate: models.NewDate(2025, 3, 1), Status: models.ReservationStatusPending},
		},
		blocked: []models.BlockedDate{
			// Inclusive: the nights of 03-10, 03-11 and 03-12 are blocked
			{VillaID: 7, StartDate: models.NewDate(2025, 3, 10), EndDate: models.NewDate(2025, 3, 12)},
		},
	}
	svc := NewAvailabilityService(store, newTestLogger())

	tests := []struct {
		name       string
		start, end time.Time
		available  bool
	}{
		{"Overlapping the last night", day(2025, 2, 4), day(2025, 2, 6), false},
		{"Check-in on the checkout day", day(2025, 2, 5), day(2025, 2, 7), true},
		{"Checkout on the check-in day", day(2025, 1, 29), day(2025, 2, 1), true},
		{"Same-day turnover on both sides", day(2025, 1, 30), day(2025, 2, 1), true},
		{"Spanning the whole reservation", day(2025, 1, 31), day(2025, 2, 6), false},
		{"Ending on the first blocked day", day(2025, 3, 8), day(2025, 3, 10), true},
		{"Starting on the last blocked day", day(2025, 3, 12), day(2025, 3, 14), false},
		{"Starting the day after the block", day(2025, 3, 13), day(2025, 3, 15), true},
		{"Cancelled reservations free their dates", day(2025, 4, 1), day(2025, 4, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, err := svc.IsAvailable(ctx, 7, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.available, available)
		})
	}

	t.Run("Back-to-back bookings", func(t *testing.T) {
		turnover := &memoryAvailability{reservations: append([]models.Reservation(nil), store.reservations...)}
		svc := NewAvailabilityService(turnover, newTestLogger())

		available, err := svc.IsAvailable(ctx, 7, day(2025, 2, 5), day(2025, 2, 8))
		require.NoError(t, err)
		require.True(t, available)
		turnover.reservations = append(turnover.reservations, models.Reservation{
			VillaID: 7, StartDate: models.NewDate(2025, 2, 5), EndDate: models.NewDate(2025, 2, 8), Status: models.ReservationStatusPending,
		})

		available, err = svc.IsAvailable(ctx, 7, day(2025, 2, 7), day(2025, 2, 9))
		require.NoError(t, err)
		assert.False(t, available)

		available, err = svc.IsAvailable(ctx, 7, day(2025, 2, 8), day(2025, 2, 9))
		require.NoError(t, err)
		assert.True(t, available)
	})
}

func TestBookingError(t *testing.T) {
	err := newError(KindConflict, "Selected dates are not available", errors.New("exclusion violation"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Selected dates are not available", MessageOf(err))
	assert.Equal(t, "Selected dates are not available: exclusion violation", err.Error())
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
