package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultRedemptionCost and DefaultEarnIncrement are the reference loyalty
// policy. Both are overridable through the environment; they are policy, not
// facts baked into the engine.
const (
	DefaultRedemptionCost = 100
	DefaultEarnIncrement  = 1
)

// LoyaltyConfig holds the point policy the redemption engine runs with.
type LoyaltyConfig struct {
	EarnIncrement  int
	RedemptionCost int
}

func LoadEnv() error {
	// Try to load .env file if it exists (for local development).
	// On production, environment variables are set directly.
	err := godotenv.Load()
	if err != nil {
		// .env file not found is not an error - it might be on production
		return nil
	}
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - application cannot function without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		log.Println("WARNING: GOOGLE_APPLICATION_CREDENTIALS not set - realtime balance mirroring is disabled")
	}
	if os.Getenv("FRONTEND_URL") == "" {
		log.Println("WARNING: FRONTEND_URL not set - QR codes will use the default base URL")
	}
	if os.Getenv("SMS_GATEWAY_URL") == "" {
		log.Println("WARNING: SMS_GATEWAY_URL not set - OTP codes will be logged instead of sent")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt reads an integer environment variable, falling back to the
// default on absence or a value that does not parse.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: %s=%q is not an integer, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// Loyalty returns the point policy from the environment. Non-positive values
// are rejected in favor of the defaults since a zero earn increment or a zero
// redemption cost would make scans meaningless.
func Loyalty() LoyaltyConfig {
	cfg := LoyaltyConfig{
		EarnIncrement:  GetEnvInt("EARN_INCREMENT", DefaultEarnIncrement),
		RedemptionCost: GetEnvInt("REDEMPTION_COST", DefaultRedemptionCost),
	}
	if cfg.EarnIncrement <= 0 {
		log.Printf("WARNING: EARN_INCREMENT must be positive, using default %d", DefaultEarnIncrement)
		cfg.EarnIncrement = DefaultEarnIncrement
	}
	if cfg.RedemptionCost <= 0 {
		log.Printf("WARNING: REDEMPTION_COST must be positive, using default %d", DefaultRedemptionCost)
		cfg.RedemptionCost = DefaultRedemptionCost
	}
	return cfg
}
