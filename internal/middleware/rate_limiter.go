package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiterFactory builds per-route limiters that share one backing store.
// With a Redis client the counters are shared between instances, otherwise
// they live in process memory.
type RateLimiterFactory struct {
	store   limiter.Store
	enabled bool
	logger  *logrus.Logger
}

// NewRateLimiterFactory creates the limiter store. client may be nil.
func NewRateLimiterFactory(client *redis.Client, enabled bool, logger *logrus.Logger) (*RateLimiterFactory, error) {
	options := limiter.StoreOptions{
		Prefix:   "rate_limiter",
		MaxRetry: 3,
	}

	var (
		store limiter.Store
		err   error
	)
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		options.CleanUpInterval = limiter.DefaultCleanUpInterval
		store = memory.NewStoreWithOptions(options)
	}

	return &RateLimiterFactory{store: store, enabled: enabled, logger: logger}, nil
}

// Limit returns middleware enforcing rate (e.g. "20-M") on routeID. Requests
// are keyed by user id when authenticated, client IP otherwise.
func (f *RateLimiterFactory) Limit(routeID, rate string) gin.HandlerFunc {
	if !f.enabled {
		return func(c *gin.Context) { c.Next() }
	}

	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		f.logger.WithError(err).WithField("route", routeID).Error("Invalid rate limit, limiter disabled for route")
		return func(c *gin.Context) { c.Next() }
	}

	instance := limiter.New(f.store, parsed)

	return ginmiddleware.NewMiddleware(instance,
		ginmiddleware.WithKeyGetter(func(c *gin.Context) string {
			return routeID + ":" + rateLimitKey(c)
		}),
		ginmiddleware.WithLimitReachedHandler(func(c *gin.Context) {
			f.logger.WithFields(logrus.Fields{
				"route": routeID,
				"ip":    c.ClientIP(),
			}).Warn("Rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests. Please try again later.",
				"code":    "RATE_LIMIT_EXCEEDED",
			})
		}),
		ginmiddleware.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open on store errors
			f.logger.WithError(err).WithField("route", routeID).Error("Rate limiter store error")
			c.Next()
		}),
	)
}

func rateLimitKey(c *gin.Context) string {
	if principal, ok := GetPrincipal(c); ok {
		return "user:" + principal.UserID.String()
	}
	return "ip:" + c.ClientIP()
}
