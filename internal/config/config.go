package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string
	JWTExpiry time.Duration

	// Connection pool
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBRetryAttempts   int
	DBRetryBackoff    time.Duration

	// Rate limiting
	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int
	CardRateLimitMax int

	// SMTP notifications, disabled when SMTPHost is empty
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// NotifyRatePerSecond caps outgoing mail, zero or less disables pacing
	NotifyRatePerSecond int

	// SweepSchedule is a cron spec for the expired card sweeper, empty disables it
	SweepSchedule string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first if present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "3000"),
		DBConn:    getEnv("DB_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=cardapp sslmode=disable"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getDuration("JWT_EXPIRY", time.Hour),

		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		DBRetryAttempts:   getInt("DB_RETRY_ATTEMPTS", 3),
		DBRetryBackoff:    getDuration("DB_RETRY_BACKOFF", 100*time.Millisecond),

		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 100),
		AuthRateLimitMax: getInt("AUTH_RATE_LIMIT_MAX", 5),
		CardRateLimitMax: getInt("CARD_RATE_LIMIT_MAX", 50),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "no-reply@cardapp.local"),

		NotifyRatePerSecond: getInt("NOTIFY_RATE_PER_SECOND", 5),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@daily"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.RateLimitMax <= 0 || cfg.AuthRateLimitMax <= 0 || cfg.CardRateLimitMax <= 0 {
		return nil, fmt.Errorf("rate limit maximums must be positive")
	}

	return cfg, nil
}

// NotificationsEnabled reports whether SMTP settings are present.
func (c *Config) NotificationsEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
