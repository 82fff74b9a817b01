package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/database"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/pkg/validator"
)

// VillaStore loads villas
type VillaStore interface {
	GetByID(ctx context.Context, id int64) (*models.Villa, error)
}

// ReservationStore is the persistence the reservation service depends on
type ReservationStore interface {
	AvailabilityStore
	CreateIfAvailable(ctx context.Context, res *models.Reservation) error
	AttachPaymentIntent(ctx context.Context, code, paymentIntentID string) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetByCode(ctx context.Context, code string) (*models.Reservation, error)
	List(ctx context.Context, limit, offset int) ([]models.Reservation, error)
	ListByVilla(ctx context.Context, villaID int64) ([]models.Reservation, error)
	ReservedRanges(ctx context.Context, villaID int64, from time.Time) ([]models.DateRange, error)
	ConfirmByID(ctx context.Context, id int64) (bool, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReservationService creates reservations and moves them through their lifecycle
type ReservationService struct {
	reservations ReservationStore
	villas       VillaStore
	payments     PaymentGateway
	phones       *validator.PhoneValidator
	config       config.BookingConfig
	logger       *logrus.Logger

	newCode func() string
	now     func() time.Time
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	reservations ReservationStore,
	villas VillaStore,
	payments PaymentGateway,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		villas:       villas,
		payments:     payments,
		phones:       validator.NewPhoneValidator(),
		config:       cfg,
		logger:       logger,
		newCode:      NewReservationCode,
		now:          time.Now,
	}
}

// ============================================================================
// CREATE
// ============================================================================

// CreateReservation validates the request, prices the deposit and stores a
// pending reservation under a fresh code. The availability check and the
// insert are atomic per villa.
func (s *ReservationService) CreateReservation(ctx context.Context, principal *models.Principal, req *models.CreateReservationRequest) (*models.Reservation, error) {
	start, end, err := NormalizeRange(req.StartDate.Time, req.EndDate.Time)
	if err != nil {
		return nil, err
	}

	guestName := strings.TrimSpace(req.GuestName)
	if guestName == "" {
		return nil, newError(KindInvalidInput, "Guest name is required", nil)
	}

	phone, err := s.phones.Validate(req.GuestPhone)
	if err != nil {
		return nil, newError(KindInvalidInput, "Invalid guest phone: "+err.Error(), err)
	}

	guests := req.GuestsCount
	if guests == 0 {
		guests = 1
	}
	if guests < 1 {
		return nil, newError(KindInvalidInput, "Guest count must be at least 1", nil)
	}

	villa, err := s.villas.GetByID(ctx, req.VillaID)
	if err != nil {
		return nil, err
	}
	if villa == nil {
		return nil, newError(KindNotFound, "Villa not found", nil)
	}

	nights := models.DaysBetween(start, end)
	res := &models.Reservation{
		VillaID:         villa.ID,
		GuestName:       guestName,
		GuestPhone:      phone,
		GuestEmail:      normalizeEmail(req.GuestEmail),
		GuestsCount:     guests,
		StartDate:       models.Date{Time: start},
		EndDate:         models.Date{Time: end},
		FeeAmount:       CalculateDepositFee(villa.PricePerNight, nights, s.config.DepositRate),
		Currency:        s.config.Currency,
		Status:          models.ReservationStatusPending,
		VillaName:       villa.Name,
		VillaOwnerEmail: villa.OwnerEmail,
	}
	if principal != nil {
		userID := principal.UserID
		res.UserID = &userID
	}

	if err := s.insertWithFreshCode(ctx, res); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_code": res.ReservationCode,
		"villa_id":         res.VillaID,
		"nights":           nights,
		"fee":              res.FeeAmount.StringFixed(2),
	}).Info("Reservation created")

	return res, nil
}

// insertWithFreshCode retries the insert with a new code whenever the
// generated one is already taken.
func (s *ReservationService) insertWithFreshCode(ctx context.Context, res *models.Reservation) error {
	attempts := s.config.MaxCodeAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		res.ReservationCode = s.newCode()

		err := s.reservations.CreateIfAvailable(ctx, res)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, database.ErrDatesUnavailable):
			return newError(KindConflict, "Selected dates are not available", err)
		case errors.Is(err, database.ErrDuplicateReservationCode):
			s.logger.WithFields(logrus.Fields{
				"reservation_code": res.ReservationCode,
				"attempt":          attempt,
			}).Warn("Reservation code collision, regenerating")
		default:
			return err
		}
	}

	return newError(KindConflict, "Could not allocate a unique reservation code", database.ErrDuplicateReservationCode)
}

// Book creates the reservation and a payment intent for its deposit.
// When the payment processor fails the reservation stays pending and the
// stale reservation job releases it later.
func (s *ReservationService) Book(ctx context.Context, principal *models.Principal, req *models.CreateReservationRequest) (*models.Reservation, *models.CreateReservationResponse, error) {
	res, err := s.CreateReservation(ctx, principal, req)
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, res.FeeAmount, res.Currency, res.ReservationCode, s.config.PaymentDescription)
	if err != nil {
		if KindOf(err) != KindPaymentProvider {
			err = newError(KindPaymentProvider, "Payment processor unavailable", err)
		}
		return res, nil, err
	}

	if err := s.reservations.AttachPaymentIntent(ctx, res.ReservationCode, intent.ID); err != nil {
		// The webhook still finds the reservation through the intent metadata.
		s.logger.WithError(err).WithField("reservation_code", res.ReservationCode).Warn("Failed to record payment intent")
	} else {
		res.PaymentIntentID = &intent.ID
	}

	return res, &models.CreateReservationResponse{
		Message:         "Reservation created. Complete the deposit payment to confirm it.",
		ReservationCode: res.ReservationCode,
		FeeAmount:       res.FeeAmount.StringFixed(2),
		Currency:        res.Currency,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ============================================================================
// READS
// ============================================================================

// Get returns a reservation the principal is allowed to see
func (s *ReservationService) Get(ctx context.Context, principal *models.Principal, id int64) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, newError(KindNotFound, "Reservation not found", nil)
	}
	if !principal.CanViewReservation(res) {
		// Hide existence from callers without access
		return nil, newError(KindNotFound, "Reservation not found", nil)
	}
	return res, nil
}

// GetByCode returns a reservation the principal is allowed to see by its public code
func (s *ReservationService) GetByCode(ctx context.Context, principal *models.Principal, code string) (*models.Reservation, error) {
	if !IsReservationCode(code) {
		return nil, newError(KindInvalidInput, "Invalid reservation code", nil)
	}

	res, err := s.reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if res == nil || !principal.CanViewReservation(res) {
		return nil, newError(KindNotFound, "Reservation not found", nil)
	}
	return res, nil
}

// List returns a page of all reservations, newest first
func (s *ReservationService) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservations.List(ctx, limit, offset)
}

// ListByVilla returns the reservations of a villa the principal manages
func (s *ReservationService) ListByVilla(ctx context.Context, principal *models.Principal, villaID int64) ([]models.Reservation, error) {
	if _, err := s.managedVilla(ctx, principal, villaID); err != nil {
		return nil, err
	}
	return s.reservations.ListByVilla(ctx, villaID)
}

// ReservedDates returns the ranges of active reservations that have not
// ended yet, for calendar blocking on the client.
func (s *ReservationService) ReservedDates(ctx context.Context, villaID int64) ([]models.DateRange, error) {
	today := models.NormalizeDate(s.now())
	return s.reservations.ReservedRanges(ctx, villaID, today)
}

func (s *ReservationService) managedVilla(ctx context.Context, principal *models.Principal, villaID int64) (*models.Villa, error) {
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
	return villa, nil
}

// ============================================================================
// STATUS TRANSITIONS
// ============================================================================

// ConfirmByID confirms a pending reservation on behalf of an admin
func (s *ReservationService) ConfirmByID(ctx context.Context, id int64) (*models.Reservation, error) {
	confirmed, err := s.reservations.ConfirmByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, newError(KindNotFound, "Reservation not found or already confirmed", nil)
	}

	s.logger.WithField("reservation_id", id).Info("Reservation confirmed by admin")
	return s.reservations.GetByID(ctx, id)
}

// Cancel releases a pending or confirmed reservation
func (s *ReservationService) Cancel(ctx context.Context, id int64) (*models.Reservation, error) {
	cancelled, err := s.reservations.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, newError(KindNotFound, "Reservation not found or not cancellable", nil)
	}

	s.logger.WithField("reservation_id", id).Info("Reservation cancelled")
	return s.reservations.GetByID(ctx, id)
}
