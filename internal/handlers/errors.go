package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusForKind maps a booking error kind to its HTTP status
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidRange, services.KindInvalidInput, services.KindConflict:
		return http.StatusBadRequest
	case services.KindWebhookVerification, services.KindWebhookProcessing:
		return http.StatusBadRequest
	case services.KindPaymentProvider:
		return http.StatusBadGateway
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Errors that carry no kind are
// logged and reported as a generic internal error.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := services.KindOf(err)
	if kind == "" {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Upstream failure")
	}

	c.JSON(status, ErrorResponse{
		Error:   strings.ToLower(string(kind)),
		Message: services.MessageOf(err),
		Code:    string(kind),
	})
}

// respondValidationError reports a request body or parameter that failed binding
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    string(services.KindInvalidInput),
	})
}
