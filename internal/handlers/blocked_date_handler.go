package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/middleware"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
)

// BlockedDateHandler handles owner-managed blocked periods
type BlockedDateHandler struct {
	blockedDates *services.BlockedDateService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewBlockedDateHandler creates a new blocked date handler
func NewBlockedDateHandler(blockedDates *services.BlockedDateService, auditService *services.AuditService, logger *logrus.Logger) *BlockedDateHandler {
	return &BlockedDateHandler{
		blockedDates: blockedDates,
		auditService: auditService,
		logger:       logger,
	}
}

// List handles GET /api/v1/villas/:id/blocked-dates
func (h *BlockedDateHandler) List(c *gin.Context) {
	villaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ranges, err := h.blockedDates.List(c.Request.Context(), villaID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if ranges == nil {
		ranges = []models.BlockedDate{}
	}

	c.JSON(http.StatusOK, gin.H{"villaId": villaID, "blockedDates": ranges})
}

// Replace handles PUT /api/v1/owner/villas/:id/blocked-dates
func (h *BlockedDateHandler) Replace(c *gin.Context) {
	villaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ReplaceBlockedDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	principal := middleware.MustGetPrincipal(c)
	saved, err := h.blockedDates.Replace(c.Request.Context(), principal, villaID, req.Ranges)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditService.LogBlockedDatesReplaced(c.Request.Context(), principal, villaID, len(saved), clientInfo(c))

	c.JSON(http.StatusOK, gin.H{
		"message":      "Blocked dates updated",
		"villaId":      villaID,
		"blockedDates": saved,
	})
}
