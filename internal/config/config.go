package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the booking client and its tooling
type Config struct {
	// API configuration (remote booking service)
	API APIConfig

	// Payment configuration (external payment provider page)
	Payment PaymentConfig

	// Resolver configuration (booking detail polling)
	Resolver ResolverConfig

	// MockServer configuration (development backend)
	MockServer MockServerConfig

	// LogLevel is the logrus level for binaries: debug, info, warn, error
	LogLevel string
}

// APIConfig holds booking service connection settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentConfig holds the payment provider's hosted page settings
type PaymentConfig struct {
	// IframeURL is the provider page that hosts the card form; the payment
	// key is appended as the payment_token query parameter.
	IframeURL string
}

// ResolverConfig holds booking detail retry settings
type ResolverConfig struct {
	// RetryUnit is the base delay of the linear backoff (1x, 2x).
	RetryUnit time.Duration
}

// MockServerConfig holds settings for the development backend
type MockServerConfig struct {
	Port        string
	JWTSecret   string
	HoldTTL     time.Duration
	DetailDelay time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		API: APIConfig{
			BaseURL: getEnv("BOOKING_API_BASE_URL", "http://localhost:8080/api"),
			Timeout: time.Duration(getEnvAsInt("BOOKING_API_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Payment: PaymentConfig{
			IframeURL: getEnv("PAYMENT_IFRAME_URL", "https://accept.paymob.com/api/acceptance/iframes/908347"),
		},
		Resolver: ResolverConfig{
			RetryUnit: time.Duration(getEnvAsInt("DETAIL_RETRY_UNIT_MS", 1000)) * time.Millisecond,
		},
		MockServer: MockServerConfig{
			Port:        getEnv("MOCK_SERVER_PORT", "8080"),
			JWTSecret:   getEnv("MOCK_SERVER_JWT_SECRET", "dev-secret"),
			HoldTTL:     time.Duration(getEnvAsInt("MOCK_SERVER_HOLD_TTL_SECONDS", 600)) * time.Second,
			DetailDelay: time.Duration(getEnvAsInt("MOCK_SERVER_DETAIL_DELAY_MS", 1500)) * time.Millisecond,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("BOOKING_API_BASE_URL is required")
	}
	if c.Payment.IframeURL == "" {
		return fmt.Errorf("PAYMENT_IFRAME_URL is required")
	}
	if c.Resolver.RetryUnit <= 0 {
		return fmt.Errorf("DETAIL_RETRY_UNIT_MS must be positive")
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
