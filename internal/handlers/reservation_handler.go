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

// ReservationHandler handles guest booking and reservation reads
type ReservationHandler struct {
	availability *services.AvailabilityService
	reservations *services.ReservationService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(
	availability *services.AvailabilityService,
	reservations *services.ReservationService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *ReservationHandler {
	return &ReservationHandler{
		availability: availability,
		reservations: reservations,
		auditService: auditService,
		logger:       logger,
	}
}

// CheckAvailability handles POST /api/v1/reservations/check-availability
func (h *ReservationHandler) CheckAvailability(c *gin.Context) {
	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	available, err := h.availability.IsAvailable(c.Request.Context(), req.VillaID, req.StartDate.Time, req.EndDate.Time)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckAvailabilityResponse{Available: available})
}

// Create handles POST /api/v1/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	res, resp, err := h.reservations.Book(c.Request.Context(), principal, &req)
	if res != nil {
		h.auditService.LogReservationCreated(c.Request.Context(), principal, res, clientInfo(c))
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.reservations.Get(c.Request.Context(), middleware.MustGetPrincipal(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetByCode handles GET /api/v1/reservations/code/:code
func (h *ReservationHandler) GetByCode(c *gin.Context) {
	res, err := h.reservations.GetByCode(c.Request.Context(), middleware.MustGetPrincipal(c), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ReservedDates handles GET /api/v1/villas/:id/reservations/dates
func (h *ReservationHandler) ReservedDates(c *gin.Context) {
	villaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ranges, err := h.reservations.ReservedDates(c.Request.Context(), villaID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if ranges == nil {
		ranges = []models.DateRange{}
	}

	c.JSON(http.StatusOK, gin.H{"villaId": villaID, "ranges": ranges})
}

// ListByVilla handles GET /api/v1/owner/villas/:id/reservations
func (h *ReservationHandler) ListByVilla(c *gin.Context) {
	villaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.reservations.ListByVilla(c.Request.Context(), middleware.MustGetPrincipal(c), villaID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Reservation{}
	}

	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// parseIDParam reads a positive integer path parameter, writing a 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondValidationError(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
