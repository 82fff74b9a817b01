package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/database"
	"github.com/villarent/reservation-api/internal/handlers"
	"github.com/villarent/reservation-api/internal/logging"
	"github.com/villarent/reservation-api/internal/middleware"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/internal/services"
	"github.com/villarent/reservation-api/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Server, cfg.Log)
	logger.Info("Starting VillaRent reservation API")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = database.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		logger.Info("Redis connection established")
	}

	// Repositories
	reservationRepository := database.NewReservationRepository(db.DB)
	villaRepository := database.NewVillaRepository(db.DB)
	blockedDateRepository := database.NewBlockedDateRepository(db.DB)
	userRepository := database.NewUserRepository(db.DB)
	auditRepository := database.NewAuditRepository(db.DB)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	paymentService := services.NewStripePaymentService(cfg.Stripe, nil, logger)
	if !cfg.Stripe.Enabled() {
		logger.Warn("STRIPE_SECRET_KEY not set, reservations will fail at the payment step")
	}
	notifier := services.NewNotifier(cfg.Mail, logger)

	auditService := services.NewAuditService(auditRepository, cfg.Security.EnableAuditLog, logger)
	authService := services.NewAuthService(userRepository, jwtService, cfg.Security.BcryptCost, logger)
	availabilityService := services.NewAvailabilityService(reservationRepository, logger)
	reservationService := services.NewReservationService(reservationRepository, villaRepository, paymentService, cfg.Booking, logger)
	blockedDateService := services.NewBlockedDateService(blockedDateRepository, villaRepository, logger)
	webhookReconciler := services.NewWebhookReconciler(paymentService, reservationRepository, notifier, logger)
	expirationService := services.NewExpirationService(reservationRepository, cfg.Booking, logger)

	if err := expirationService.Start(); err != nil {
		logger.Fatalf("Failed to start stale reservation job: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, auditService, logger)
	reservationHandler := handlers.NewReservationHandler(availabilityService, reservationService, auditService, logger)
	paymentHandler := handlers.NewPaymentHandler(webhookReconciler, paymentService.PublishableKey(), auditService, logger)
	blockedDateHandler := handlers.NewBlockedDateHandler(blockedDateService, auditService, logger)
	adminHandler := handlers.NewAdminHandler(reservationService, expirationService, auditService, logger)

	rateLimits, err := middleware.NewRateLimiterFactory(redisClient, cfg.RateLimit.Enabled, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize rate limiter: %v", err)
	}

	// Initialize Gin router
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	authMiddleware := middleware.AuthMiddleware(jwtService, logger)
	authLimit := rateLimits.Limit("auth", cfg.RateLimit.AuthRate)
	bookingLimit := rateLimits.Limit("booking", cfg.RateLimit.BookingRate)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimit, authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/refresh", authLimit, authHandler.RefreshToken)
		}

		reservations := v1.Group("/reservations")
		{
			// Public
			reservations.POST("/check-availability", reservationHandler.CheckAvailability)
			reservations.POST("/webhook", paymentHandler.Webhook)

			// Authenticated
			reservations.POST("", authMiddleware, bookingLimit, reservationHandler.Create)
			reservations.GET("/:id", authMiddleware, reservationHandler.Get)
			reservations.GET("/code/:code", authMiddleware, reservationHandler.GetByCode)

			// Admin
			adminOnly := middleware.RequireRole(models.RoleAdmin)
			reservations.GET("", authMiddleware, adminOnly, adminHandler.ListReservations)
			reservations.PUT("/:id/confirm", authMiddleware, adminOnly, adminHandler.ConfirmReservation)
			reservations.PUT("/:id/cancel", authMiddleware, adminOnly, adminHandler.CancelReservation)
		}

		villas := v1.Group("/villas/:id")
		{
			villas.GET("/reservations/dates", reservationHandler.ReservedDates)
			villas.GET("/blocked-dates", blockedDateHandler.List)
		}

		owner := v1.Group("/owner")
		owner.Use(authMiddleware, middleware.RequireRole(models.RoleOwner, models.RoleAdmin))
		{
			owner.PUT("/villas/:id/blocked-dates", blockedDateHandler.Replace)
			owner.GET("/villas/:id/reservations", reservationHandler.ListByVilla)
		}

		v1.GET("/payments/publishable-key", paymentHandler.PublishableKey)

		admin := v1.Group("/admin")
		admin.Use(authMiddleware, middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/reservations/expire-stale", adminHandler.ExpireStale)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	expirationService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
