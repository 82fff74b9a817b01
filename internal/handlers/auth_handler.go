package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
)

// AuthHandler handles account registration and token issuing
type AuthHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
		logger:       logger,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditService.LogUserRegistered(c.Request.Context(), tokens.User, clientInfo(c))
	c.JSON(http.StatusCreated, tokens)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request body: "+err.Error())
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), &req)
	if user != nil {
		h.auditService.LogUserLogin(c.Request.Context(), &user.ID, user.Email, err == nil, clientInfo(c))
	} else {
		h.auditService.LogUserLogin(c.Request.Context(), nil, req.Email, false, clientInfo(c))
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Refresh token is required")
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}
