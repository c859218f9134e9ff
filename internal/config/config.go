// Package config provides environment configuration for the trip assistant.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	PublicBaseURL      string
	CORSOrigins        []string

	// Database settings
	DatabaseDriver  string
	DatabaseURL     string
	DBMaxOpenConns  int
	AutoMigrate     bool
	CatalogCacheTTL time.Duration

	// LLM settings
	LLMProvider     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMBaseURL      string
	LLMModel        string
	LLMTemperature  float64
	LLMMaxTokens    int
	LLMTimeout      time.Duration

	// Conversation settings
	HistoryWindow int
	CatalogLimit  int
	DefaultCity   string
	DefaultDays   int

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	NATSClientName    string
	NATSMaxReconnects int
	NATSReconnectWait time.Duration
	NATSStreamMaxAge  time.Duration

	// Action deduplication
	RedisURL       string
	ActionDedupTTL time.Duration

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "3001"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		CORSOrigins:        getListEnv("CORS_ALLOWED_ORIGINS", nil),

		// Database
		DatabaseDriver:  getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:  getIntEnv("DB_MAX_OPEN_CONNS", 10),
		AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", false),
		CatalogCacheTTL: getDurationEnv("CATALOG_CACHE_TTL", 5*time.Minute),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTemperature:  getFloatEnv("LLM_TEMPERATURE", 0.8),
		LLMMaxTokens:    getIntEnv("LLM_MAX_TOKENS", 2048),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 90*time.Second),

		// Conversation
		HistoryWindow: getIntEnv("HISTORY_WINDOW", 10),
		CatalogLimit:  getIntEnv("CATALOG_LIMIT", 10),
		DefaultCity:   getEnv("DEFAULT_CITY", "Сочи"),
		DefaultDays:   getIntEnv("DEFAULT_DAYS", 3),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		NATSClientName:    getEnv("NATS_CLIENT_NAME", "trip-assistant"),
		NATSMaxReconnects: getIntEnv("NATS_MAX_RECONNECTS", -1),
		NATSReconnectWait: getDurationEnv("NATS_RECONNECT_WAIT", 2*time.Second),
		NATSStreamMaxAge:  getDurationEnv("NATS_STREAM_MAX_AGE", 30*24*time.Hour),

		// Dedup
		RedisURL:       getEnv("REDIS_URL", ""),
		ActionDedupTTL: getDurationEnv("ACTION_DEDUP_TTL", 2*time.Minute),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	default:
		errs = append(errs, errors.New("LLM_PROVIDER must be openai or anthropic"))
	}
	if c.HistoryWindow <= 0 {
		errs = append(errs, errors.New("HISTORY_WINDOW must be positive"))
	}
	if c.DefaultDays <= 0 {
		errs = append(errs, errors.New("DEFAULT_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
