package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/villarent/reservation-api/internal/models"
)

func newLimitedRouter(t *testing.T, enabled bool, rate string) *gin.Engine {
	t.Helper()
	factory, err := NewRateLimiterFactory(nil, enabled, newTestLogger())
	require.NoError(t, err)

	router := setupTestRouter()
	router.GET("/limited", factory.Limit("test", rate), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func TestRateLimiter_MemoryStore(t *testing.T) {
	router := newLimitedRouter(t, true, "2-M")

	for i := 0; i < 2; i++ {
		w := doRequest(router, "/limited", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doRequest(router, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimiter_Disabled(t *testing.T) {
	router := newLimitedRouter(t, false, "1-M")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "/limited", "").Code)
	}
}

func TestRateLimiter_InvalidRatePassesThrough(t *testing.T) {
	router := newLimitedRouter(t, true, "lots")

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "/limited", "").Code)
	}
}

func TestRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.9:5555"

	assert.Equal(t, "ip:203.0.113.9", rateLimitKey(c))

	userID := uuid.New()
	c.Set(PrincipalContextKey, &models.Principal{UserID: userID})
	assert.Equal(t, "user:"+userID.String(), rateLimitKey(c))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := setupTestRouter()
	router.Use(RequestLogger(logger))
	router.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	doRequest(router, "/missing?x=1", "")

	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/missing"`)
	assert.Contains(t, out, `"query":"x=1"`)
	assert.Contains(t, out, "Request completed with client error")
}
