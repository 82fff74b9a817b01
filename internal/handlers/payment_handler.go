package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/services"
)

// maxWebhookBodyBytes caps the size of a webhook delivery
const maxWebhookBodyBytes = 65536

// PaymentHandler receives payment processor webhooks and exposes client-side payment settings
type PaymentHandler struct {
	reconciler     *services.WebhookReconciler
	publishableKey string
	auditService   *services.AuditService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(reconciler *services.WebhookReconciler, publishableKey string, auditService *services.AuditService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		reconciler:     reconciler,
		publishableKey: publishableKey,
		auditService:   auditService,
		logger:         logger,
	}
}

// Webhook handles POST /api/v1/reservations/webhook.
// Any verified event is acknowledged with 200, including ones that change nothing.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WithField("ip", c.ClientIP()).Warn("Webhook body too large")
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "payload_too_large",
				Message: "Request body too large",
				Code:    string(services.KindWebhookProcessing),
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_body",
			Message: "Failed to read request body",
			Code:    string(services.KindWebhookProcessing),
		})
		return
	}

	result, err := h.reconciler.HandlePaymentEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Webhook rejected")
		respondError(c, h.logger, err)
		return
	}

	switch result.Outcome {
	case services.OutcomeConfirmed:
		h.auditService.LogReservationConfirmed(c.Request.Context(), nil, result.ReservationCode, "webhook", clientInfo(c))
	case services.OutcomeReinstated:
		h.auditService.LogReservationConfirmed(c.Request.Context(), nil, result.ReservationCode, "webhook_reinstated", clientInfo(c))
	case services.OutcomePaidAfterCancellation:
		h.auditService.LogPaymentNeedsRefund(c.Request.Context(), result.ReservationCode, result.PaymentIntentID, clientInfo(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"eventId":  result.EventID,
		"outcome":  result.Outcome,
	})
}

// PublishableKey handles GET /api/v1/payments/publishable-key
func (h *PaymentHandler) PublishableKey(c *gin.Context) {
	if h.publishableKey == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Payment processor is not configured",
			Code:    string(services.KindNotFound),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publishableKey": h.publishableKey})
}
