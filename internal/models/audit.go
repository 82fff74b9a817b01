package models

import "github.com/google/uuid"

// Audit actions
const (
	AuditReservationCreated   = "reservation_created"
	AuditReservationConfirmed = "reservation_confirmed"
	AuditReservationCancelled = "reservation_cancelled"
	AuditPaymentNeedsRefund   = "payment_needs_refund"
	AuditBlockedDatesReplaced = "blocked_dates_replaced"
	AuditStaleReservationsRun = "stale_reservations_expired"
	AuditUserRegistered       = "user_registered"
	AuditUserLogin            = "user_login"
)

// AuditEntry is one row of the audit log
type AuditEntry struct {
	UserID     *uuid.UUID             // nil for anonymous callers and webhooks
	Action     string                 // e.g. "reservation_created"
	EntityType string                 // e.g. "reservation", "villa"
	EntityID   string                 // reservation code, villa id, ...
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // stored as JSONB
}
