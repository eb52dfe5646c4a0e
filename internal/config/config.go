package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL    string
	ServerPort     string
	BaseURL        string
	FrontendURL    string
	SessionSecret  string
	IMailAPIKey    string
	GoogleClientID string

	AdminEmail        string
	AdminName         string
	AdminPasswordHash string
	AdminPassword     string

	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURI  string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int

	AuthRateLimit       int
	AuthRateLimitWindow int // seconds

	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		IMailAPIKey:    getEnv("IMAIL_API_KEY", ""),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminName:         getEnv("ADMIN_NAME", "Portal Admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),

		LinkedInClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedInRedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", "noreply@jasperfinmodel.com"),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateLimitWindow: getEnvInt("AUTH_RATE_LIMIT_WINDOW", 60),

		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IMailAPIKey == "" {
		return nil, fmt.Errorf("IMAIL_API_KEY is required for the email endpoints")
	}

	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", cfg.AuthRateLimit)
	}
	if cfg.AuthRateLimitWindow <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT_WINDOW must be positive, got %d", cfg.AuthRateLimitWindow)
	}

	return cfg, nil
}

// AdminConfigured reports whether a password login account exists. The hash
// form is preferred; the plaintext form is for local development only.
func (c *Config) AdminConfigured() bool {
	return c.AdminEmail != "" && (c.AdminPasswordHash != "" || c.AdminPassword != "")
}

// LinkedInConfigured reports whether the LinkedIn OAuth exchange can run.
// Missing provider config is surfaced as a 500 at the endpoint, not at startup.
func (c *Config) LinkedInConfigured() bool {
	return c.LinkedInClientID != "" && c.LinkedInClientSecret != ""
}

// SMTPConfigured reports whether the SMTP relay is configured.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
