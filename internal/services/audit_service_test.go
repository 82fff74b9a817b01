package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/villarent/reservation-api/internal/mocks"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/utils"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func TestAuditService_LogReservationCreated(t *testing.T) {
	ctx := context.Background()
	writer := new(mocks.AuditWriter)
	svc := NewAuditService(writer, true, newTestLogger())

	principal := &models.Principal{UserID: uuid.New(), Email: "ana@example.com"}
	res := &models.Reservation{
		VillaID:         7,
		StartDate:       models.NewDate(2025, 1, 10),
		EndDate:         models.NewDate(2025, 1, 13),
		FeeAmount:       decimal.RequireFromString("60"),
		ReservationCode: "VR-1A2B3C4D",
	}

	writer.On("Insert", ctx, mock.MatchedBy(func(e *models.AuditEntry) bool {
		device, ok := e.Details["device_info"].(utils.DeviceInfo)
		return e.Action == models.AuditReservationCreated &&
			e.EntityType == "reservation" &&
			e.EntityID == "VR-1A2B3C4D" &&
			e.UserID != nil && *e.UserID == principal.UserID &&
			e.IPAddress == "203.0.113.9" &&
			e.Details["nights"] == 3 &&
			e.Details["fee_amount"] == "60.00" &&
			ok && device.DeviceType == "mobile"
	})).Return(nil)

	svc.LogReservationCreated(ctx, principal, res, ClientInfo{IPAddress: "203.0.113.9", UserAgent: iphoneUA})
	writer.AssertExpectations(t)
}

func TestAuditService_AnonymousLogin(t *testing.T) {
	ctx := context.Background()
	writer := new(mocks.AuditWriter)
	svc := NewAuditService(writer, true, newTestLogger())

	writer.On("Insert", ctx, mock.MatchedBy(func(e *models.AuditEntry) bool {
		return e.Action == models.AuditUserLogin &&
			e.UserID == nil &&
			e.EntityID == "" &&
			e.Details["success"] == false &&
			e.Details["email"] == "ghost@example.com"
	})).Return(nil)

	svc.LogUserLogin(ctx, nil, "ghost@example.com", false, ClientInfo{})
	writer.AssertExpectations(t)
}

func TestAuditService_Disabled(t *testing.T) {
	writer := new(mocks.AuditWriter)
	svc := NewAuditService(writer, false, newTestLogger())

	svc.LogBlockedDatesReplaced(context.Background(), nil, 7, 2, ClientInfo{})
	writer.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAuditService_WriteFailureSwallowed(t *testing.T) {
	ctx := context.Background()
	writer := new(mocks.AuditWriter)
	svc := NewAuditService(writer, true, newTestLogger())
	writer.On("Insert", ctx, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.LogStaleReservationsExpired(ctx, nil, 4, ClientInfo{})
	})
	writer.AssertExpectations(t)
}
