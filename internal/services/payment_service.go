package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/villarent/reservation-api/internal/config"
)

// Stripe event types handled by the webhook
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// CorrelationMetadataKey is the payment intent metadata key holding the reservation code
const CorrelationMetadataKey = "reservation_code"

// PaymentIntent is the part of a processor payment intent the booking flow needs
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountMinor  int64
	Currency     string
}

// PaymentEvent is a verified webhook event
type PaymentEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	ReservationCode string
	AmountReceived  int64
	Currency        string
}

// PaymentGateway creates payment intents with an external processor
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, correlationID, description string) (*PaymentIntent, error)
}

// PaymentEventVerifier authenticates and decodes processor webhook payloads
type PaymentEventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// StripePaymentService talks to Stripe with credentials passed in at construction
type StripePaymentService struct {
	api            *client.API
	publishableKey string
	webhookSecret  string
	enabled        bool
	logger         *logrus.Logger
}

// NewStripePaymentService creates a Stripe client bound to cfg.
// httpClient may be nil; tests pass one with a mock transport.
func NewStripePaymentService(cfg config.StripeConfig, httpClient *http.Client, logger *logrus.Logger) *StripePaymentService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     logger,
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	backends := &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
	}

	return &StripePaymentService{
		api:            client.New(cfg.SecretKey, backends),
		publishableKey: cfg.PublishableKey,
		webhookSecret:  cfg.WebhookSecret,
		enabled:        cfg.Enabled(),
		logger:         logger,
	}
}

// PublishableKey returns the key the browser uses to confirm payments
func (s *StripePaymentService) PublishableKey() string {
	return s.publishableKey
}

// ToMinorUnits converts an amount to cents, rounding half away from zero
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreatePaymentIntent asks Stripe for a payment intent tagged with the
// reservation code and returns its client secret.
func (s *StripePaymentService) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, correlationID, description string) (*PaymentIntent, error) {
	if !s.enabled {
		return nil, newError(KindPaymentProvider, "Payment processor is not configured", nil)
	}

	minor := ToMinorUnits(amount)
	if minor <= 0 {
		return nil, newError(KindPaymentProvider, "Payment amount must be positive", nil)
	}
	currency = strings.ToLower(currency)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if description != "" {
		params.Description = stripe.String(description)
	}
	params.Context = ctx
	params.AddMetadata(CorrelationMetadataKey, correlationID)
	params.SetIdempotencyKey("reservation-" + correlationID)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"reservation_code": correlationID,
			"amount_minor":     minor,
			"currency":         currency,
		}).Error("Stripe payment intent creation failed")
		return nil, newError(KindPaymentProvider, providerMessage(err), err)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_code":  correlationID,
		"payment_intent_id": pi.ID,
		"amount_minor":      minor,
	}).Info("Payment intent created")

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func providerMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return "Payment processor error: " + stripeErr.Msg
	}
	return "Payment processor unavailable"
}

// VerifyEvent checks the Stripe-Signature header and decodes the event.
// For payment intent events the intent id and reservation code are extracted.
func (s *StripePaymentService) VerifyEvent(payload []byte, signature string) (*PaymentEvent, error) {
	if s.webhookSecret == "" {
		return nil, newError(KindWebhookVerification, "Webhook secret is not configured", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, newError(KindWebhookVerification, "Invalid webhook signature", err)
	}

	result := &PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(result.Type, "payment_intent.") || event.Data == nil {
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, newError(KindWebhookProcessing, "Malformed payment intent payload", err)
	}

	result.PaymentIntentID = pi.ID
	result.ReservationCode = pi.Metadata[CorrelationMetadataKey]
	result.AmountReceived = pi.AmountReceived
	result.Currency = string(pi.Currency)
	return result, nil
}
