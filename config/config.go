package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"payouts/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Payout processing configuration
	PayoutWorkers         int  // Authors processed concurrently by ProcessMonth
	PayoutScheduleEnabled bool // Run monthly processing automatically
	PayoutScheduleDay     int  // Day of month (JST) the previous month is processed
	PayoutScheduleHour    int  // Hour (JST) the previous month is processed (0-23)

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Discord admin notifications
	DiscordToken          string
	DiscordAdminChannelID string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// DiscordNotificationsEnabled reports whether admin reports should be posted to Discord
func (c *Config) DiscordNotificationsEnabled() bool {
	return c.DiscordToken != "" && c.DiscordAdminChannelID != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// Payout processing defaults
		PayoutWorkers:         4,
		PayoutScheduleEnabled: os.Getenv("PAYOUT_SCHEDULE_ENABLED") == "true",
		PayoutScheduleDay:     1,
		PayoutScheduleHour:    3, // 03:00 JST

		// NATS
		NATSEnabled: os.Getenv("NATS_ENABLED") == "true",
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Discord
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		DiscordAdminChannelID: os.Getenv("DISCORD_ADMIN_CHANNEL_ID"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "payouts"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				config.CORSAllowedOrigins = append(config.CORSAllowedOrigins, origin)
			}
		}
	}

	// Override defaults if environment variables are set
	if workers := os.Getenv("PAYOUT_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed > 0 {
			config.PayoutWorkers = parsed
		}
	}
	if day := os.Getenv("PAYOUT_SCHEDULE_DAY"); day != "" {
		if parsed, err := strconv.Atoi(day); err == nil && parsed >= 1 && parsed <= 28 {
			config.PayoutScheduleDay = parsed
		}
	}
	if hour := os.Getenv("PAYOUT_SCHEDULE_HOUR"); hour != "" {
		if parsed, err := strconv.Atoi(hour); err == nil && parsed >= 0 && parsed <= 23 {
			config.PayoutScheduleHour = parsed
		}
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.DiscordAdminChannelID != "" && config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required when DISCORD_ADMIN_CHANNEL_ID is set")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		HTTPAddr:         ":0",
		PayoutWorkers:    2,
		OTelExporterType: "none",
		LogLevel:         "debug",
	}
}
