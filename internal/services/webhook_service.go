package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/models"
)

// WebhookOutcome says what the reconciler did with a verified event
type WebhookOutcome string

const (
	OutcomeConfirmed        WebhookOutcome = "confirmed"
	OutcomeAlreadyConfirmed WebhookOutcome = "already_confirmed"
	OutcomeUnknownCode      WebhookOutcome = "unknown_reservation"
	OutcomeMissingCode      WebhookOutcome = "missing_reservation_code"
	OutcomeIgnored          WebhookOutcome = "ignored"

	// OutcomeReinstated: the reservation had been cancelled before the payment
	// landed and was confirmed again because its dates were still free.
	OutcomeReinstated WebhookOutcome = "reinstated"
	// OutcomePaidAfterCancellation: the reservation stays cancelled because its
	// dates were taken meanwhile. The payment must be refunded.
	OutcomePaidAfterCancellation WebhookOutcome = "paid_after_cancellation"
)

// defaultNotifyTimeout bounds the confirmation email so a slow mail server
// cannot hold the webhook acknowledgement
const defaultNotifyTimeout = 10 * time.Second

// WebhookResult is returned for every acknowledged event
type WebhookResult struct {
	EventID         string
	EventType       string
	ReservationCode string
	PaymentIntentID string
	Outcome         WebhookOutcome
	Reservation     *models.Reservation
	NotificationErr error
}

// ReservationConfirmer is the subset of the reservation store the reconciler uses
type ReservationConfirmer interface {
	GetByCode(ctx context.Context, code string) (*models.Reservation, error)
	ConfirmByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error)
	ReinstateByCode(ctx context.Context, code string, paymentIntentID *string) (bool, error)
}

// WebhookReconciler turns verified payment events into reservation confirmations
type WebhookReconciler struct {
	verifier      PaymentEventVerifier
	reservations  ReservationConfirmer
	notifier      Notifier
	notifyTimeout time.Duration
	logger        *logrus.Logger
}

// NewWebhookReconciler creates a new WebhookReconciler
func NewWebhookReconciler(verifier PaymentEventVerifier, reservations ReservationConfirmer, notifier Notifier, logger *logrus.Logger) *WebhookReconciler {
	return &WebhookReconciler{
		verifier:      verifier,
		reservations:  reservations,
		notifier:      notifier,
		notifyTimeout: defaultNotifyTimeout,
		logger:        logger,
	}
}

// HandlePaymentEvent verifies a raw webhook delivery and, for a succeeded
// payment, confirms the pending reservation named in its metadata. Each
// reservation is confirmed and notified at most once however often the
// processor redelivers the event.
func (w *WebhookReconciler) HandlePaymentEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := w.verifier.VerifyEvent(payload, signature)
	if err != nil {
		w.logger.WithError(err).Warn("Rejected payment webhook")
		return nil, err
	}

	result := &WebhookResult{
		EventID:         event.ID,
		EventType:       event.Type,
		ReservationCode: event.ReservationCode,
		PaymentIntentID: event.PaymentIntentID,
	}
	log := w.logger.WithFields(logrus.Fields{
		"event_id":          event.ID,
		"event_type":        event.Type,
		"payment_intent_id": event.PaymentIntentID,
		"reservation_code":  event.ReservationCode,
	})

	if event.Type != EventPaymentIntentSucceeded {
		result.Outcome = OutcomeIgnored
		log.Debug("Ignoring payment event")
		return result, nil
	}

	if event.ReservationCode == "" {
		result.Outcome = OutcomeMissingCode
		log.Warn("Payment succeeded without a reservation code")
		return result, nil
	}

	var intentID *string
	if event.PaymentIntentID != "" {
		intentID = &event.PaymentIntentID
	}

	confirmed, err := w.reservations.ConfirmByCode(ctx, event.ReservationCode, intentID)
	if err != nil {
		log.WithError(err).Error("Failed to confirm reservation")
		return nil, newError(KindWebhookProcessing, "Failed to confirm reservation", err)
	}

	res, err := w.reservations.GetByCode(ctx, event.ReservationCode)
	if err != nil {
		log.WithError(err).Error("Failed to load reservation")
		return nil, newError(KindWebhookProcessing, "Failed to load reservation", err)
	}
	result.Reservation = res

	if !confirmed {
		switch {
		case res == nil:
			result.Outcome = OutcomeUnknownCode
			log.Warn("Payment succeeded for unknown reservation")
			return result, nil
		case res.Status == models.ReservationStatusCancelled:
			return w.reinstate(ctx, log, result, intentID)
		default:
			result.Outcome = OutcomeAlreadyConfirmed
			log.WithField("status", res.Status).Info("Reservation not pending, nothing to confirm")
			return result, nil
		}
	}

	result.Outcome = OutcomeConfirmed
	log.Info("Reservation confirmed by payment")
	w.notifyGuest(ctx, log, result)

	return result, nil
}

// reinstate handles a payment for a reservation that was cancelled before the
// payment landed, typically by the stale reservation job
func (w *WebhookReconciler) reinstate(ctx context.Context, log *logrus.Entry, result *WebhookResult, intentID *string) (*WebhookResult, error) {
	reinstated, err := w.reservations.ReinstateByCode(ctx, result.ReservationCode, intentID)
	if err != nil {
		log.WithError(err).Error("Failed to reinstate cancelled reservation")
		return nil, newError(KindWebhookProcessing, "Failed to reinstate reservation", err)
	}

	if !reinstated {
		result.Outcome = OutcomePaidAfterCancellation
		log.WithField("status", result.Reservation.Status).
			Error("Payment received for cancelled reservation whose dates are no longer free, refund required")
		return result, nil
	}

	res, err := w.reservations.GetByCode(ctx, result.ReservationCode)
	if err != nil {
		log.WithError(err).Error("Failed to load reservation")
		return nil, newError(KindWebhookProcessing, "Failed to load reservation", err)
	}
	if res != nil {
		result.Reservation = res
	}

	result.Outcome = OutcomeReinstated
	log.Warn("Cancelled reservation reinstated by late payment")
	w.notifyGuest(ctx, log, result)

	return result, nil
}

func (w *WebhookReconciler) notifyGuest(ctx context.Context, log *logrus.Entry, result *WebhookResult) {
	res := result.Reservation
	if res == nil || res.GuestEmail == nil || *res.GuestEmail == "" {
		return
	}

	result.NotificationErr = w.notify(ctx, res)
	if result.NotificationErr != nil {
		log.WithError(result.NotificationErr).Error("Failed to send confirmation email")
	}
}

func (w *WebhookReconciler) notify(ctx context.Context, res *models.Reservation) error {
	subject, body, err := ReservationConfirmedEmail(res)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, w.notifyTimeout)
	defer cancel()
	return w.notifier.Send(ctx, *res.GuestEmail, subject, body)
}
