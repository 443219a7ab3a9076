package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT    string
	APP_ENV string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	SMTP_HOST     string
	SMTP_PORT     string
	SMTP_FROM     string
	SMTP_PASSWORD string

	CORS_ORIGIN string
	JWT_SECRET  string

	FREE_TIER_EMAIL_LIMIT int64
	RATE_LIMIT_MAX        int
	RATE_LIMIT_WINDOW     time.Duration
)

// LoadEnv reads .env when present and populates the package vars. Billing and
// mail credentials are optional: missing ones put the service in the matching
// degraded mode instead of refusing to start.
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	APP_ENV = getEnv("APP_ENV", "development")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")

	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
	SMTP_FROM = getEnv("SMTP_FROM", "")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")

	CORS_ORIGIN = getEnv("CORS_ORIGIN", "*")
	JWT_SECRET = getEnv("JWT_SECRET", "")

	FREE_TIER_EMAIL_LIMIT = getEnvInt64("FREE_TIER_EMAIL_LIMIT", 100)
	RATE_LIMIT_MAX = getEnvInt("RATE_LIMIT_MAX", 100)
	RATE_LIMIT_WINDOW = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
}

// MailConfigured reports whether the SMTP transport has enough configuration
// to send.
func MailConfigured() bool {
	return SMTP_HOST != "" && SMTP_FROM != "" && SMTP_PASSWORD != ""
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}
