package app

import (
	"credit-chat/internal/analytics"
	"credit-chat/internal/cache"
	"credit-chat/internal/config"
	"credit-chat/internal/repository/db"
	"credit-chat/internal/service/llm"

	"github.com/redis/go-redis/v9"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Centralized application configuration
	AppConfig *config.AppConfig
	// Redis connection shared by the reply cache and the rate limiter; nil
	// when the store is unreachable
	Redis redis.Cmdable
	// Reply cache over Redis
	Cache *cache.Cache
	// Chat backends built at startup
	LLM *llm.Registry
	// In-process analytics sink
	Events *analytics.Buffer
}

// NewConfig creates a new application configuration. redisClient may be nil.
func NewConfig(database db.Database, appConfig *config.AppConfig, redisClient redis.Cmdable, providers *llm.Registry) *Config {
	return &Config{
		DB:        database,
		AppConfig: appConfig,
		Redis:     redisClient,
		Cache:     cache.New(redisClient),
		LLM:       providers,
		Events:    analytics.NewBuffer(analytics.DefaultCapacity),
	}
}

// Providers returns the provider catalog
func (c *Config) Providers() *config.ProviderCatalog {
	return c.AppConfig.Providers
}
