package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and EMAIL_AUTH_TOKEN
// are required.
type Config struct {
	// Server
	HTTPPort        string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Email API
	EmailBaseURL     string
	EmailAuthToken   string
	EmailSender      string
	EmailTimeout     time.Duration
	EmailSendsPerSec int

	// Delivery worker
	DeliveryWorkers      int
	DeliveryPollInterval time.Duration
	DeliveryErrorBackoff time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	emailToken := os.Getenv("EMAIL_AUTH_TOKEN")
	if emailToken == "" {
		return nil, fmt.Errorf("EMAIL_AUTH_TOKEN is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://127.0.0.1:8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		EmailBaseURL:     getEnv("EMAIL_BASE_URL", "https://api.sendgrid.com"),
		EmailAuthToken:   emailToken,
		EmailSender:      getEnv("EMAIL_SENDER", "newsletter@example.com"),
		EmailTimeout:     getDuration("EMAIL_TIMEOUT", 10*time.Second),
		EmailSendsPerSec: getInt("EMAIL_SENDS_PER_SEC", 20),

		DeliveryWorkers:      getInt("DELIVERY_WORKERS", 1),
		DeliveryPollInterval: getDuration("DELIVERY_POLL_INTERVAL", 10*time.Second),
		DeliveryErrorBackoff: getDuration("DELIVERY_ERROR_BACKOFF", time.Second),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
