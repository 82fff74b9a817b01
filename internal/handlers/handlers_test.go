package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/middleware"
	"github.com/villarent/reservation-api/internal/mocks"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
	"github.com/villarent/reservation-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const testWebhookSecret = "whsec_handler_test"

// mockPaymentGateway mocks the payment intent side of the processor
type mockPaymentGateway struct {
	mock.Mock
}

func (m *mockPaymentGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, correlationID, description string) (*services.PaymentIntent, error) {
	args := m.Called(ctx, amount.StringFixed(2), currency, correlationID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentIntent), args.Error(1)
}

// testEnv wires real services and handlers over mocked stores
type testEnv struct {
	router   *gin.Engine
	jwt      *jwt.Service
	store    *mocks.ReservationStore
	villas   *mocks.VillaStore
	blocked  *mocks.BlockedDateStore
	users    *mocks.UserStore
	audit    *mocks.AuditWriter
	notifier *mocks.Notifier
	payments *mockPaymentGateway
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()

	env := &testEnv{
		router:   gin.New(),
		jwt:      jwt.NewService("handler-access-secret", "handler-refresh-secret", time.Hour, 24*time.Hour),
		store:    new(mocks.ReservationStore),
		villas:   new(mocks.VillaStore),
		blocked:  new(mocks.BlockedDateStore),
		users:    new(mocks.UserStore),
		audit:    new(mocks.AuditWriter),
		notifier: new(mocks.Notifier),
		payments: new(mockPaymentGateway),
	}
	env.audit.On("Insert", mock.Anything, mock.Anything).Return(nil).Maybe()

	booking := config.BookingConfig{
		DepositRate:        decimal.RequireFromString("0.20"),
		Currency:           "eur",
		MaxCodeAttempts:    3,
		PendingTTL:         2 * time.Hour,
		ExpirySchedule:     "0 */5 * * * *",
		PaymentDescription: "Reservation deposit",
	}
	stripe := services.NewStripePaymentService(config.StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  testWebhookSecret,
	}, nil, logger)

	auditService := services.NewAuditService(env.audit, true, logger)
	reservationService := services.NewReservationService(env.store, env.villas, env.payments, booking, logger)

	reservationHandler := NewReservationHandler(services.NewAvailabilityService(env.store, logger), reservationService, auditService, logger)
	paymentHandler := NewPaymentHandler(services.NewWebhookReconciler(stripe, env.store, env.notifier, logger), stripe.PublishableKey(), auditService, logger)
	blockedHandler := NewBlockedDateHandler(services.NewBlockedDateService(env.blocked, env.villas, logger), auditService, logger)
	authHandler := NewAuthHandler(services.NewAuthService(env.users, env.jwt, bcrypt.MinCost, logger), auditService, logger)
	adminHandler := NewAdminHandler(reservationService, services.NewExpirationService(env.store, booking, logger), auditService, logger)

	auth := middleware.AuthMiddleware(env.jwt, logger)
	v1 := env.router.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.RefreshToken)
	v1.POST("/reservations/check-availability", reservationHandler.CheckAvailability)
	v1.POST("/reservations/webhook", paymentHandler.Webhook)
	v1.POST("/reservations", auth, reservationHandler.Create)
	v1.GET("/reservations", auth, middleware.RequireRole(models.RoleAdmin), adminHandler.ListReservations)
	v1.GET("/reservations/:id", auth, reservationHandler.Get)
	v1.GET("/reservations/code/:code", auth, reservationHandler.GetByCode)
	v1.PUT("/reservations/:id/confirm", auth, middleware.RequireRole(models.RoleAdmin), adminHandler.ConfirmReservation)
	v1.PUT("/reservations/:id/cancel", auth, middleware.RequireRole(models.RoleAdmin), adminHandler.CancelReservation)
	v1.GET("/villas/:id/reservations/dates", reservationHandler.ReservedDates)
	v1.GET("/villas/:id/blocked-dates", blockedHandler.List)
	v1.PUT("/owner/villas/:id/blocked-dates", auth, middleware.RequireRole(models.RoleOwner, models.RoleAdmin), blockedHandler.Replace)
	v1.GET("/owner/villas/:id/reservations", auth, middleware.RequireRole(models.RoleOwner, models.RoleAdmin), reservationHandler.ListByVilla)
	v1.GET("/payments/publishable-key", paymentHandler.PublishableKey)
	v1.POST("/admin/reservations/expire-stale", auth, middleware.RequireRole(models.RoleAdmin), adminHandler.ExpireStale)

	return env
}

// token issues an access token for a fresh user with the given roles
func (e *testEnv) token(t *testing.T, email string, roles ...string) (uuid.UUID, string) {
	t.Helper()
	userID := uuid.New()
	token, err := e.jwt.GenerateAccessToken(userID, email, roles)
	require.NoError(t, err)
	return userID, "Bearer " + token
}

func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func testVilla() *models.Villa {
	return &models.Villa{
		ID:            7,
		Name:          "Villa Azul",
		PricePerNight: decimal.RequireFromString("100.00"),
		OwnerEmail:    "owner@example.com",
	}
}
