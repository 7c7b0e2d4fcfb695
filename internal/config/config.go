package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// WhatsApp Cloud API
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WebhookVerifyToken    string

	DatabaseURL string
	HTTPPort    string

	// Gemini key for response scoring. Empty disables scoring.
	GeminiAPIKey string

	// Admin API. Both must be set for the admin routes to work.
	AdminAPIKey string
	JWTSecret   string

	Debug             bool
	DailyQuestionHour int
	Timezone          *time.Location
}

// Load reads .env (if present) and the environment and returns a fully
// constructed Config. Components receive this value at startup; there is no
// process-global settings object.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WebhookVerifyToken:    getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		DatabaseURL:           getEnv("DATABASE_URL", "interview_bot.db"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		AdminAPIKey:           getEnv("ADMIN_API_KEY", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		Debug:                 getEnvAsBool("DEBUG", false),
		DailyQuestionHour:     getEnvAsInt("DAILY_QUESTION_HOUR", 9),
	}

	if cfg.WebhookVerifyToken == "" {
		return nil, fmt.Errorf("WEBHOOK_VERIFY_TOKEN environment variable is required")
	}
	if cfg.DailyQuestionHour < 0 || cfg.DailyQuestionHour > 23 {
		return nil, fmt.Errorf("DAILY_QUESTION_HOUR must be between 0 and 23, got %d", cfg.DailyQuestionHour)
	}

	tzName := getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
