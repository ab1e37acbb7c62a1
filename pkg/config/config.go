// Package config loads and validates process configuration from environment
// variables. All settings are read once at startup; the resulting Config is
// immutable and safe to share across goroutines.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all recognized settings for the cipher service.
type Config struct {
	// HTTP server
	HTTPHost string
	HTTPPort string

	// APIKey protects the /api/v1 surface via the x-api-key header.
	// Empty disables authentication (development mode).
	APIKey string

	// Engagement limits
	MaxSessionMessages int  // turn cap before engaging -> completing
	EngagementEnabled  bool // kill switch; false short-circuits /engage

	// LLM generation
	AgentMaxRetries      int           // reflection retry attempts
	GenerationTimeout    time.Duration // per-attempt deadline
	RequestTimeout       time.Duration // HTTP client timeout for the provider
	RetryDelay           time.Duration // pause between reflection attempts
	OllamaBaseURL        string
	OllamaModel          string

	// Personas
	PersonaDir       string
	DefaultPersonaID string

	// Session store (Redis when RedisURL is set, in-memory otherwise)
	RedisURL        string
	RedisKeyPrefix  string
	SessionTTL      time.Duration
	CleanupInterval time.Duration // in-memory store sweep cadence

	// Profile store (Postgres when DatabaseURL is set, in-memory otherwise)
	DatabaseURL string

	// Completion callback
	CallbackURL        string
	CallbackRetryDelay time.Duration

	// Profile aggregation
	EngagementGap time.Duration // last_seen gap that counts as a new engagement

	// Logging
	LogLevel string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		APIKey:   getEnv("API_KEY", ""),

		MaxSessionMessages: getEnvInt("MAX_SESSION_MESSAGES", 20),
		EngagementEnabled:  getEnvBool("FEATURE_ENGAGEMENT_ENABLED", true),

		AgentMaxRetries:   getEnvInt("AGENT_MAX_RETRIES", 3),
		GenerationTimeout: getEnvSeconds("LLM_GENERATION_TIMEOUT_SECONDS", 8),
		RequestTimeout:    getEnvSeconds("LLM_REQUEST_TIMEOUT_SECONDS", 30),
		RetryDelay:        getEnvSeconds("LLM_RETRY_DELAY_SECONDS", 1),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.1:8b"),

		PersonaDir:       getEnv("PERSONA_DIR", "./personas"),
		DefaultPersonaID: getEnv("DEFAULT_PERSONA_ID", "margaret_72"),

		RedisURL:        getEnv("REDIS_URL", ""),
		RedisKeyPrefix:  getEnv("REDIS_KEY_PREFIX", "cipher:session:"),
		SessionTTL:      getEnvSeconds("REDIS_SESSION_TTL_SECONDS", 3600),
		CleanupInterval: getEnvSeconds("SESSION_CLEANUP_INTERVAL_SECONDS", 300),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CallbackURL:        getEnv("CALLBACK_URL", ""),
		CallbackRetryDelay: getEnvSeconds("CALLBACK_RETRY_DELAY_SECONDS", 1),

		EngagementGap: getEnvSeconds("ENGAGEMENT_GAP_SECONDS", 3600),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxSessionMessages < 1 {
		return fmt.Errorf("MAX_SESSION_MESSAGES must be >= 1, got %d", c.MaxSessionMessages)
	}
	if c.AgentMaxRetries < 1 {
		return fmt.Errorf("AGENT_MAX_RETRIES must be >= 1, got %d", c.AgentMaxRetries)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("LLM_GENERATION_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("REDIS_SESSION_TTL_SECONDS must be positive")
	}
	if c.EngagementGap <= 0 {
		return fmt.Errorf("ENGAGEMENT_GAP_SECONDS must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}
