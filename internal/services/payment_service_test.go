package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/villarent/reservation-api/internal/config"
)

const (
	testWebhookSecret  = "whsec_test_secret"
	stripeIntentsURL   = "https://api.stripe.com/v1/payment_intents"
	testReservationKey = "VR-1A2B3C4D"
)

func newTestStripe(t *testing.T) *StripePaymentService {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewStripePaymentService(config.StripeConfig{
		SecretKey:         "sk_test_123",
		PublishableKey:    "pk_test_123",
		WebhookSecret:     testWebhookSecret,
		MaxNetworkRetries: 0,
	}, httpClient, newTestLogger())
}

// signStripePayload builds a Stripe-Signature header for payload
func signStripePayload(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func paymentEventPayload(eventType, code string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"object": "event",
		"type": %q,
		"api_version": "2020-08-27",
		"data": {
			"object": {
				"id": "pi_123",
				"object": "payment_intent",
				"amount": 6000,
				"amount_received": 6000,
				"currency": "eur",
				"metadata": {"reservation_code": %q}
			}
		}
	}`, eventType, code))
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	svc := newTestStripe(t)

	httpmock.RegisterResponder("POST", stripeIntentsURL, func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "6000", req.PostForm.Get("amount"))
		assert.Equal(t, "eur", req.PostForm.Get("currency"))
		assert.Equal(t, testReservationKey, req.PostForm.Get("metadata[reservation_code]"))
		assert.Equal(t, "true", req.PostForm.Get("automatic_payment_methods[enabled]"))
		assert.Equal(t, "Reservation deposit", req.PostForm.Get("description"))
		assert.Equal(t, "reservation-"+testReservationKey, req.Header.Get("Idempotency-Key"))
		assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))

		return httpmock.NewJsonResponse(200, map[string]interface{}{
			"id":            "pi_123",
			"object":        "payment_intent",
			"amount":        6000,
			"currency":      "eur",
			"client_secret": "pi_123_secret_abc",
		})
	})

	intent, err := svc.CreatePaymentIntent(context.Background(), decimal.RequireFromString("60.00"), "EUR", testReservationKey, "Reservation deposit")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(6000), intent.AmountMinor)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCreatePaymentIntent_ProviderError(t *testing.T) {
	svc := newTestStripe(t)

	httpmock.RegisterResponder("POST", stripeIntentsURL, httpmock.NewStringResponder(400, `{
		"error": {"type": "invalid_request_error", "message": "Amount must be at least 50 cents"}
	}`))

	_, err := svc.CreatePaymentIntent(context.Background(), decimal.RequireFromString("0.20"), "eur", testReservationKey, "")
	assert.ErrorIs(t, err, ErrPaymentProvider)
	assert.Equal(t, "Payment processor error: Amount must be at least 50 cents", MessageOf(err))
}

func TestCreatePaymentIntent_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestStripe(t)

	_, err := svc.CreatePaymentIntent(context.Background(), decimal.Zero, "eur", testReservationKey, "")
	assert.ErrorIs(t, err, ErrPaymentProvider)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCreatePaymentIntent_NotConfigured(t *testing.T) {
	svc := NewStripePaymentService(config.StripeConfig{}, nil, newTestLogger())

	_, err := svc.CreatePaymentIntent(context.Background(), decimal.RequireFromString("60"), "eur", testReservationKey, "")
	assert.ErrorIs(t, err, ErrPaymentProvider)
}

func TestVerifyEvent(t *testing.T) {
	svc := newTestStripe(t)

	t.Run("Valid signature", func(t *testing.T) {
		payload := paymentEventPayload(EventPaymentIntentSucceeded, testReservationKey)

		event, err := svc.VerifyEvent(payload, signStripePayload(testWebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_123", event.ID)
		assert.Equal(t, EventPaymentIntentSucceeded, event.Type)
		assert.Equal(t, "pi_123", event.PaymentIntentID)
		assert.Equal(t, testReservationKey, event.ReservationCode)
		assert.Equal(t, int64(6000), event.AmountReceived)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		payload := paymentEventPayload(EventPaymentIntentSucceeded, testReservationKey)

		_, err := svc.VerifyEvent(payload, signStripePayload("whsec_other", payload, time.Now()))
		assert.ErrorIs(t, err, ErrWebhookVerification)
	})

	t.Run("Tampered payload", func(t *testing.T) {
		payload := paymentEventPayload(EventPaymentIntentSucceeded, testReservationKey)
		signature := signStripePayload(testWebhookSecret, payload, time.Now())

		_, err := svc.VerifyEvent(paymentEventPayload(EventPaymentIntentSucceeded, "VR-FFFFFFFF"), signature)
		assert.ErrorIs(t, err, ErrWebhookVerification)
	})

	t.Run("Stale timestamp", func(t *testing.T) {
		payload := paymentEventPayload(EventPaymentIntentSucceeded, testReservationKey)

		_, err := svc.VerifyEvent(payload, signStripePayload(testWebhookSecret, payload, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrWebhookVerification)
	})

	t.Run("Missing header", func(t *testing.T) {
		_, err := svc.VerifyEvent(paymentEventPayload(EventPaymentIntentSucceeded, testReservationKey), "")
		assert.ErrorIs(t, err, ErrWebhookVerification)
	})

	t.Run("Other event type", func(t *testing.T) {
		payload := []byte(`{"id": "evt_9", "object": "event", "type": "customer.created", "data": {"object": {"id": "cus_1", "object": "customer"}}}`)

		event, err := svc.VerifyEvent(payload, signStripePayload(testWebhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "customer.created", event.Type)
		assert.Empty(t, event.ReservationCode)
	})
}

func TestPublishableKey(t *testing.T) {
	assert.Equal(t, "pk_test_123", newTestStripe(t).PublishableKey())
}
