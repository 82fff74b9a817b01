package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Payment processor configuration
	Stripe StripeConfig

	// Outbound mail configuration
	Mail MailConfig

	// Redis configuration (optional, backs the rate limiter)
	Redis RedisConfig

	// Booking engine configuration
	Booking BookingConfig

	// Log file configuration
	Log LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // "pgx" or "postgres" (lib/pq)
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// RateLimitConfig holds rate limiting configuration.
// Rates use the limiter format "<limit>-<period>", e.g. "20-M" or "100-H".
type RateLimitConfig struct {
	Enabled     bool
	BookingRate string
	AuthRate    string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost     int
	EnableAuditLog bool
}

// StripeConfig holds the payment processor credentials.
// It is passed explicitly to the payment service; nothing is set globally.
type StripeConfig struct {
	SecretKey         string
	PublishableKey    string
	WebhookSecret     string
	APIURL            string // optional override, used against stripe-mock
	MaxNetworkRetries int64
}

// Enabled reports whether a secret key was configured
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// MailConfig holds outbound mail configuration
type MailConfig struct {
	Provider         string // "smtp", "mailersend" or "log"
	FromEmail        string
	FromName         string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	MailerSendAPIKey string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string
}

// BookingConfig holds reservation engine settings
type BookingConfig struct {
	DepositRate        decimal.Decimal
	Currency           string
	MaxCodeAttempts    int
	PendingTTL         time.Duration // 0 disables the stale reservation job
	ExpirySchedule     string        // cron spec with seconds field
	PaymentDescription string
}

// LogConfig holds log file rotation settings
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:             getEnv("DATABASE_DRIVER", "pgx"),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvAsBool("RATE_LIMIT_ENABLED", true),
			BookingRate: getEnv("RATE_LIMIT_BOOKING", "20-M"),
			AuthRate:    getEnv("RATE_LIMIT_AUTH", "10-M"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "Stripe-Signature"}),
		},
		Security: SecurityConfig{
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 12),
			EnableAuditLog: getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
		Stripe: StripeConfig{
			SecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey:    getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
			APIURL:            getEnv("STRIPE_API_URL", ""),
			MaxNetworkRetries: int64(getEnvAsInt("STRIPE_MAX_NETWORK_RETRIES", 2)),
		},
		Mail: MailConfig{
			Provider:         getEnv("MAIL_PROVIDER", "log"),
			FromEmail:        getEnv("MAIL_FROM_EMAIL", "no-reply@villarent.local"),
			FromName:         getEnv("MAIL_FROM_NAME", "VillaRent"),
			SMTPHost:         getEnv("SMTP_HOST", ""),
			SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:     getEnv("SMTP_USERNAME", ""),
			SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
			MailerSendAPIKey: getEnv("MAILERSEND_API_KEY", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Booking: BookingConfig{
			DepositRate:        getEnvAsDecimal("BOOKING_DEPOSIT_RATE", decimal.RequireFromString("0.20")),
			Currency:           strings.ToLower(getEnv("BOOKING_CURRENCY", "eur")),
			MaxCodeAttempts:    getEnvAsInt("BOOKING_CODE_ATTEMPTS", 5),
			PendingTTL:         getEnvAsDuration("BOOKING_PENDING_TTL", 2*time.Hour),
			ExpirySchedule:     getEnv("BOOKING_EXPIRY_SCHEDULE", "0 */5 * * * *"),
			PaymentDescription: getEnv("BOOKING_PAYMENT_DESCRIPTION", "Reservation deposit"),
		},
		Log: LogConfig{
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'pgx' or 'postgres')", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if !c.Booking.DepositRate.IsPositive() || c.Booking.DepositRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("BOOKING_DEPOSIT_RATE must be in (0, 1], got %s", c.Booking.DepositRate)
	}

	if c.Booking.MaxCodeAttempts < 1 {
		return fmt.Errorf("BOOKING_CODE_ATTEMPTS must be at least 1")
	}

	if c.Stripe.Enabled() && c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}

	switch c.Mail.Provider {
	case "log":
	case "smtp":
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp mail provider")
		}
	case "mailersend":
		if c.Mail.MailerSendAPIKey == "" {
			return fmt.Errorf("MAILERSEND_API_KEY is required for the mailersend mail provider")
		}
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER: %s (must be 'log', 'smtp' or 'mailersend')", c.Mail.Provider)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("Invalid decimal value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
