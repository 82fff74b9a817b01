// Package mocks holds testify mocks of the storage and mail collaborators
// used by services and handlers tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/villarent/reservation-api/internal/models"
)

// ReservationStore mocks the reservation repository
type ReservationStore struct {
	mock.Mock
}

func (m *ReservationStore) IsRangeAvailable(ctx context.Context, villaID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, villaID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationStore) CreateIfAvailable(ctx context.Context, res *models.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *ReservationStore) AttachPaymentIntent(ctx context.Context, code, paymentIntentID string) error {
	args := m.Called(ctx, code, paymentIntentID)
	return args.Error(0)
}

func (m *ReservationStore) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *ReservationStore) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *ReservationStore) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *ReservationStore) ListByVilla(ctx context.Context, villaID int64) ([]models.Reservation, error) {
	args := m.Called(ctx, villaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *ReservationStore) ReservedRanges(ctx context.Context, villaID int64, from time.Time) ([]models.DateRange, error) {
	args := m.Called(ctx, villaID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DateRange), args.Error(1)
}

func (m *ReservationStore) ConfirmByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error) {
	args := m.Called(ctx, code, paymentIntentID)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationStore) ReinstateByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error) {
	args := m.Called(ctx, code, paymentIntentID)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationStore) ConfirmByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationStore) Cancel(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationStore) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// VillaStore mocks the villa repository
type VillaStore struct {
	mock.Mock
}

func (m *VillaStore) GetByID(ctx context.Context, id int64) (*models.Villa, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Villa), args.Error(1)
}

// BlockedDateStore mocks the blocked date repository
type BlockedDateStore struct {
	mock.Mock
}

func (m *BlockedDateStore) ListByVilla(ctx context.Context, villaID int64) ([]models.BlockedDate, error) {
	args := m.Called(ctx, villaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlockedDate), args.Error(1)
}

func (m *BlockedDateStore) Replace(ctx context.Context, villaID int64, ranges []models.BlockedDate) ([]models.BlockedDate, error) {
	args := m.Called(ctx, villaID, ranges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlockedDate), args.Error(1)
}

// UserStore mocks the user repository
type UserStore struct {
	mock.Mock
}

func (m *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// AuditWriter mocks the audit repository
type AuditWriter struct {
	mock.Mock
}

func (m *AuditWriter) Insert(ctx context.Context, entry *models.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Notifier mocks an email transport
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}
