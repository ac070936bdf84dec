// Package config provides configuration management for the recorder notifier.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration so the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - WEBHOOK_PATH: Path the recorder posts events to (default: /webhook)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path; stdout when unset
//   - TLS_CERT, TLS_KEY: Optional TLS certificate/key pair
//
// Telegram Configuration:
//   - TELEGRAM_BOT_TOKEN: Bot API token (required)
//   - TELEGRAM_CHAT_ID: Destination chat identifier (required)
//   - TELEGRAM_API_BASE: Bot API base URL (default: https://api.telegram.org)
//   - TELEGRAM_TIMEOUT: Outbound request timeout (default: 8s)
//
// Deduplication:
//   - DEDUP_BACKEND: "memory" or "redis" (default: memory)
//   - DEDUP_TTL: Retention window for seen event ids (default: 24h)
//   - DEDUP_SWEEP_INTERVAL: Eviction sweep cadence for the memory backend (default: 5m)
//
// Redis Configuration (used when DEDUP_BACKEND=redis):
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Push Filtering:
//   - PUSH_FILTER_ENABLED: Enable the notification filter (default: false)
//   - PUSH_ONLY_EVENT_TYPES: Comma-separated event types to allow
//   - PUSH_ONLY_ROOM_IDS: Comma-separated numeric room ids to allow
//
// Delivery Protection:
//   - BREAKER_ENABLED: Wrap Telegram delivery in a circuit breaker (default: false)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the recorder notifier.
// All fields correspond to environment variables that can be set to
// override the default values.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port        string // Server port number
	WebhookPath string // Path the recorder delivers events to
	LogLevel    string // Logging level (debug, info, warn, error)
	TLSCert     string // TLS certificate file path
	TLSKey      string // TLS key file path

	// Telegram Bot API settings
	TelegramBotToken string        // Bot API token (required)
	TelegramChatID   string        // Destination chat identifier (required)
	TelegramAPIBase  string        // Bot API base URL
	TelegramTimeout  time.Duration // Outbound request timeout

	// Deduplication settings
	DedupBackend       string        // "memory" or "redis"
	DedupTTL           time.Duration // Retention window for seen event ids
	DedupSweepInterval time.Duration // Memory backend eviction sweep cadence

	// Redis configuration for the distributed dedup backend
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// Push filter configuration
	PushFilterEnabled  bool     // Whether the notification filter is enabled
	PushOnlyEventTypes []string // Event types allowed through the filter
	PushOnlyRoomIDs    []int64  // Room ids allowed through the filter

	// Delivery protection
	BreakerEnabled bool // Whether Telegram delivery runs behind a circuit breaker
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		WebhookPath: getEnv("WEBHOOK_PATH", "/webhook"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		TLSCert:     getEnv("TLS_CERT", ""),
		TLSKey:      getEnv("TLS_KEY", ""),

		// Telegram configuration
		TelegramBotToken: strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		TelegramChatID:   strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID", "")),
		TelegramAPIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramTimeout:  getDurationEnv("TELEGRAM_TIMEOUT", 8*time.Second),

		// Deduplication configuration
		DedupBackend:       getEnv("DEDUP_BACKEND", "memory"),
		DedupTTL:           getDurationEnv("DEDUP_TTL", 24*time.Hour),
		DedupSweepInterval: getDurationEnv("DEDUP_SWEEP_INTERVAL", 5*time.Minute),

		// Redis configuration
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		// Push filter configuration
		PushFilterEnabled:  getBoolEnv("PUSH_FILTER_ENABLED", false),
		PushOnlyEventTypes: getListEnv("PUSH_ONLY_EVENT_TYPES"),
		PushOnlyRoomIDs:    getInt64ListEnv("PUSH_ONLY_ROOM_IDS"),

		// Delivery protection
		BreakerEnabled: getBoolEnv("BREAKER_ENABLED", false),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable value or returns a
// default value. Plain integers are interpreted as seconds, for compatibility
// with deployments that configured timeouts and TTLs as bare second counts.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated environment variable as a string slice,
// trimming whitespace and dropping empty entries.
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// getInt64ListEnv retrieves a comma-separated environment variable as an int64
// slice, silently dropping entries that are not valid integers.
func getInt64ListEnv(key string) []int64 {
	var ids []int64
	for _, item := range getListEnv(key) {
		if id, err := strconv.ParseInt(item, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid.
//
// The application should call this method after loading configuration and
// before starting to ensure safe operation.
func (c *Config) Validate() error {
	// Validate required fields
	var missing []string
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	// Validate webhook path
	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with '/'")
	}
	if c.WebhookPath == "/health" {
		return fmt.Errorf("WEBHOOK_PATH must not shadow the /health endpoint")
	}

	// Validate dedup backend
	switch c.DedupBackend {
	case "memory", "redis":
		// Valid backends
	default:
		return fmt.Errorf("DEDUP_BACKEND must be 'memory' or 'redis'")
	}

	if c.DedupTTL <= 0 {
		return fmt.Errorf("DEDUP_TTL must be a positive duration")
	}
	if c.DedupSweepInterval <= 0 {
		return fmt.Errorf("DEDUP_SWEEP_INTERVAL must be a positive duration")
	}

	// Validate Redis config if using the Redis backend
	if c.DedupBackend == "redis" {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when DEDUP_BACKEND is 'redis'")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	// Validate Telegram timeout
	if c.TelegramTimeout <= 0 {
		return fmt.Errorf("TELEGRAM_TIMEOUT must be a positive duration")
	}

	// TLS cert and key must be provided together
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must both be set to enable TLS")
	}

	return nil
}
