package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/villarent/reservation-api/internal/services"
	"github.com/villarent/reservation-api/internal/utils"
)

// clientInfo captures the caller's real IP and user agent for audit entries
func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}
