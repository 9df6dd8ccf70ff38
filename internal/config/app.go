package config

import (
	"credit-chat/internal/logger"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Chat      ChatConfig
	Credits   CreditsConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Stripe    StripeConfig
	Providers *ProviderCatalog
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string
	Env           string
	AllowedOrigin string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string // sqlite file, ":memory:" allowed
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds cache store connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LLMConfig holds chat backend credentials and model selection
type LLMConfig struct {
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	SecondaryDriver  string // openai or openrouter
	OpenRouterAPIKey string
	OpenRouterModel  string
}

// ChatConfig carries the orchestrator switches. It is passed to the chat
// service at construction time and never re-read from the environment.
type ChatConfig struct {
	CacheDisabled          bool
	CreditsDisabled        bool
	MetricsEnabled         bool
	SimulatePrimaryFailure bool
	RefundOnFailure        bool
	CachePerUser           bool
	CreditCost             int
	CacheTTL               time.Duration
	ProviderTimeout        time.Duration
}

// CreditsConfig holds ledger defaults
type CreditsConfig struct {
	DefaultBalance int
}

// RateLimitConfig holds per-user request limits for the chat route
type RateLimitConfig struct {
	DailyLimit           int
	SubscriberDailyLimit int
	BurstPerMinute       int
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// StripeConfig holds checkout configuration
type StripeConfig struct {
	SecretKey           string
	WebhookSecret       string
	SuccessURL          string
	CancelURL           string
	PricePerCreditCents int64
}

// DefaultChatConfig returns the orchestrator settings used when nothing is overridden
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		CreditCost:      1,
		CacheTTL:        24 * time.Hour,
		ProviderTimeout: 30 * time.Second,
	}
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warn("No .env file loaded, relying on process environment")
	}

	config := &AppConfig{}

	config.Server = ServerConfig{
		Port:          getEnvOrDefault("SERVER_PORT", "8080"),
		Env:           getEnvOrDefault("APP_ENV", "production"),
		AllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
	}

	config.Database = DatabaseConfig{
		Driver:          getEnvOrDefault("DB_DRIVER", "postgres"),
		Host:            getEnvOrDefault("DB_HOST", "postgres"),
		Port:            getEnvOrDefault("DB_PORT", "5432"),
		User:            getEnvOrDefault("DB_USER", "postgres"),
		Password:        getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:            getEnvOrDefault("DB_NAME", "creditchat"),
		SSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
		Path:            getEnvOrDefault("DB_PATH", "creditchat.db"),
		MigrationsPath:  getEnvOrDefault("DB_MIGRATIONS_PATH", "file://migrations"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", config.Database.Driver)
	}

	config.Redis = RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logger.Log.Warn("GEMINI_API_KEY environment variable not set")
	}
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		logger.Log.Warn("OPENAI_API_KEY environment variable not set")
	}

	config.LLM = LLMConfig{
		GeminiAPIKey:     geminiKey,
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:     openAIKey,
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SecondaryDriver:  getEnvOrDefault("LLM_SECONDARY_DRIVER", "openai"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  getEnvOrDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
	}

	defaults := DefaultChatConfig()
	config.Chat = ChatConfig{
		CacheDisabled:          getEnvAsBool("DISABLE_CHAT_CACHE", false),
		CreditsDisabled:        getEnvAsBool("DISABLE_CHAT_CREDITS", false),
		MetricsEnabled:         getEnvAsBool("METRICS_ENABLED", false),
		SimulatePrimaryFailure: getEnvAsBool("SIMULATE_GEMINI_FAILURE", false),
		RefundOnFailure:        getEnvAsBool("CHAT_REFUND_ON_FAILURE", false),
		CachePerUser:           getEnvAsBool("CHAT_CACHE_PER_USER", false),
		CreditCost:             getEnvAsInt("CHAT_CREDIT_COST", defaults.CreditCost),
		CacheTTL:               getEnvAsDuration("CHAT_CACHE_TTL", defaults.CacheTTL),
		ProviderTimeout:        getEnvAsDuration("CHAT_PROVIDER_TIMEOUT", defaults.ProviderTimeout),
	}
	if config.Chat.CreditCost < 1 {
		return nil, fmt.Errorf("CHAT_CREDIT_COST must be at least 1, got %d", config.Chat.CreditCost)
	}

	config.Credits = CreditsConfig{
		DefaultBalance: getEnvAsInt("DEFAULT_CREDIT_BALANCE", 50),
	}

	config.RateLimit = RateLimitConfig{
		DailyLimit:           getEnvAsInt("CHAT_DAILY_LIMIT", 20),
		SubscriberDailyLimit: getEnvAsInt("CHAT_SUBSCRIBER_DAILY_LIMIT", 200),
		BurstPerMinute:       getEnvAsInt("CHAT_BURST_PER_MINUTE", 10),
	}

	// Load Auth config
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_TOKEN_EXPIRATION", 24*time.Hour),
	}

	config.Stripe = StripeConfig{
		SecretKey:           os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SuccessURL:          getEnvOrDefault("STRIPE_SUCCESS_URL", "http://localhost:3000/credits?status=success"),
		CancelURL:           getEnvOrDefault("STRIPE_CANCEL_URL", "http://localhost:3000/credits?status=cancelled"),
		PricePerCreditCents: int64(getEnvAsInt("STRIPE_PRICE_PER_CREDIT_CENTS", 10)),
	}

	catalog, err := LoadProviderCatalog(os.Getenv("PROVIDERS_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("failed to load providers config: %w", err)
	}
	config.Providers = catalog

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}
