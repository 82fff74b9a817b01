package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/utils"
)

// AuditWriter persists audit entries
type AuditWriter interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
}

// ClientInfo identifies where a request came from
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuditService records security and booking events. Failures are logged and
// never returned, so auditing cannot break the request that triggered it.
type AuditService struct {
	writer  AuditWriter
	enabled bool
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(writer AuditWriter, enabled bool, logger *logrus.Logger) *AuditService {
	return &AuditService{writer: writer, enabled: enabled, logger: logger}
}

// LogReservationCreated records a new pending reservation
func (s *AuditService) LogReservationCreated(ctx context.Context, principal *models.Principal, res *models.Reservation, client ClientInfo) {
	s.record(ctx, principal, models.AuditReservationCreated, "reservation", res.ReservationCode, client, map[string]interface{}{
		"villa_id":   res.VillaID,
		"start_date": res.StartDate.String(),
		"end_date":   res.EndDate.String(),
		"nights":     res.Nights(),
		"fee_amount": res.FeeAmount.StringFixed(2),
	})
}

// LogReservationConfirmed records a confirmation. source is "webhook", "webhook_reinstated" or "admin".
func (s *AuditService) LogReservationConfirmed(ctx context.Context, principal *models.Principal, code, source string, client ClientInfo) {
	s.record(ctx, principal, models.AuditReservationConfirmed, "reservation", code, client, map[string]interface{}{
		"source": source,
	})
}

// LogPaymentNeedsRefund records a payment that arrived for a reservation which
// had already been cancelled and could not be reinstated
func (s *AuditService) LogPaymentNeedsRefund(ctx context.Context, code, paymentIntentID string, client ClientInfo) {
	s.record(ctx, nil, models.AuditPaymentNeedsRefund, "reservation", code, client, map[string]interface{}{
		"payment_intent_id": paymentIntentID,
	})
}

// LogReservationCancelled records an admin cancellation
func (s *AuditService) LogReservationCancelled(ctx context.Context, principal *models.Principal, res *models.Reservation, client ClientInfo) {
	s.record(ctx, principal, models.AuditReservationCancelled, "reservation", res.ReservationCode, client, map[string]interface{}{
		"reservation_id": res.ID,
	})
}

// LogBlockedDatesReplaced records a replace-all of a villa's blocked dates
func (s *AuditService) LogBlockedDatesReplaced(ctx context.Context, principal *models.Principal, villaID int64, count int, client ClientInfo) {
	s.record(ctx, principal, models.AuditBlockedDatesReplaced, "villa", strconv.FormatInt(villaID, 10), client, map[string]interface{}{
		"ranges": count,
	})
}

// LogStaleReservationsExpired records a manual run of the expiry job
func (s *AuditService) LogStaleReservationsExpired(ctx context.Context, principal *models.Principal, released int64, client ClientInfo) {
	s.record(ctx, principal, models.AuditStaleReservationsRun, "reservation", "", client, map[string]interface{}{
		"released": released,
	})
}

// LogUserRegistered records a new account
func (s *AuditService) LogUserRegistered(ctx context.Context, user *models.User, client ClientInfo) {
	principal := &models.Principal{UserID: user.ID, Email: user.Email}
	s.record(ctx, principal, models.AuditUserRegistered, "user", user.ID.String(), client, nil)
}

// LogUserLogin records a login attempt. userID is nil when the email is unknown.
func (s *AuditService) LogUserLogin(ctx context.Context, userID *uuid.UUID, email string, success bool, client ClientInfo) {
	var principal *models.Principal
	entityID := ""
	if userID != nil {
		principal = &models.Principal{UserID: *userID, Email: email}
		entityID = userID.String()
	}
	s.record(ctx, principal, models.AuditUserLogin, "user", entityID, client, map[string]interface{}{
		"email":   email,
		"success": success,
	})
}

func (s *AuditService) record(ctx context.Context, principal *models.Principal, action, entityType, entityID string, client ClientInfo, details map[string]interface{}) {
	if !s.enabled {
		return
	}

	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(client.UserAgent)

	entry := &models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		Details:    details,
	}
	if principal != nil {
		userID := principal.UserID
		entry.UserID = &userID
	}

	if err := s.writer.Insert(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
		}).Warn("Failed to write audit log")
	}
}
