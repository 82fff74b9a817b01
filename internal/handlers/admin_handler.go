package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/middleware"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
)

// AdminHandler handles admin-only reservation management
type AdminHandler struct {
	reservations *services.ReservationService
	expiration   *services.ExpirationService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	reservations *services.ReservationService,
	expiration *services.ExpirationService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		reservations: reservations,
		expiration:   expiration,
		auditService: auditService,
		logger:       logger,
	}
}

// ListReservations handles GET /api/v1/reservations?limit=&offset=
func (h *AdminHandler) ListReservations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := h.reservations.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Reservation{}
	}

	c.JSON(http.StatusOK, models.ReservationListResponse{
		Reservations: list,
		Limit:        limit,
		Offset:       offset,
	})
}

// ConfirmReservation handles PUT /api/v1/reservations/:id/confirm
func (h *AdminHandler) ConfirmReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.reservations.ConfirmByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	principal := middleware.MustGetPrincipal(c)
	if res != nil {
		h.auditService.LogReservationConfirmed(c.Request.Context(), principal, res.ReservationCode, "admin", clientInfo(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation confirmed",
		"reservation": res,
	})
}

// CancelReservation handles PUT /api/v1/reservations/:id/cancel
func (h *AdminHandler) CancelReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if res != nil {
		h.auditService.LogReservationCancelled(c.Request.Context(), middleware.MustGetPrincipal(c), res, clientInfo(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation cancelled",
		"reservation": res,
	})
}

// ExpireStale handles POST /api/v1/admin/reservations/expire-stale
func (h *AdminHandler) ExpireStale(c *gin.Context) {
	if !h.expiration.Enabled() {
		c.JSON(http.StatusOK, gin.H{
			"message":  "Stale reservation expiry is disabled",
			"released": 0,
		})
		return
	}

	released, err := h.expiration.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditService.LogStaleReservationsExpired(c.Request.Context(), middleware.MustGetPrincipal(c), released, clientInfo(c))

	c.JSON(http.StatusOK, gin.H{
		"message":  "Stale reservations released",
		"released": released,
	})
}
