package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Telegram bot token, used to verify Mini App init data
	TelegramBotToken string

	// AI estimation endpoint configuration
	AIAPIKey         string
	AIAPIURL         string
	AIModel          string
	AIMaxDailyReqs   int
	AIMaxDailyCost   float64
	AIEnforceLimits  bool
	AIImproveNames   bool
	AITimeoutSeconds int
}

// Load creates a Config from environment variables. In development a .env
// file is read first when present; secrets may also be supplied as
// *_FILE paths pointing at mounted secret files.
func Load() (*Config, error) {
	if IsDevelopment() {
		// Missing .env is fine, real env vars still apply.
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getSecret("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "nutrilog"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getSecret("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:        getSecret("JWT_SECRET"),
		TelegramBotToken: getSecret("TELEGRAM_BOT_TOKEN"),

		AIAPIKey:         getSecret("AI_API_KEY"),
		AIAPIURL:         getEnv("AI_API_URL", "https://api.openai.com/v1/chat/completions"),
		AIModel:          getEnv("AI_MODEL", "gpt-3.5-turbo"),
		AIMaxDailyReqs:   getEnvInt("AI_MAX_DAILY_REQUESTS", 100),
		AIMaxDailyCost:   getEnvFloat("AI_MAX_DAILY_COST", 2.0),
		AIEnforceLimits:  getEnvBool("AI_ENFORCE_LIMITS", false),
		AIImproveNames:   getEnvBool("AI_IMPROVE_NAMES", true),
		AITimeoutSeconds: getEnvInt("AI_TIMEOUT_SECONDS", 30),
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getSecret reads KEY, falling back to the file named by KEY_FILE. Docker
// secret mounts expose the latter.
func getSecret(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(filepath.Clean(path)); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
