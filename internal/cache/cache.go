package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"credit-chat/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultTTL applies when Set is called without a positive ttl
const DefaultTTL = time.Hour

const promptPrefix = "prompt:"

// Cache is a fail-open client over a Redis-compatible store. No method
// returns an error: faults are logged and reported as a miss or false.
type Cache struct {
	client redis.Cmdable
}

// New wraps a redis client. A nil client yields a cache that always misses.
func New(client redis.Cmdable) *Cache {
	return &Cache{client: client}
}

// Get returns the cached value and whether it was found
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c.client == nil {
		return "", false
	}

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logger.Log.WithField("key", key).Debug("Cache miss")
		return "", false
	}
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Cache get failed")
		return "", false
	}

	logger.Log.WithField("key", key).Debug("Cache hit")
	return value, true
}

// Set stores value under key with the given expiry
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if c.client == nil {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Cache set failed")
		return false
	}

	logger.Log.WithFields(logrus.Fields{"key": key, "ttl_seconds": int(ttl.Seconds())}).Debug("Cache set")
	return true
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Cache delete failed")
		return false
	}

	logger.Log.WithField("key", key).Debug("Cache delete")
	return true
}

// Normalize lower-cases text and joins its words with "_". Any Unicode
// space separates words.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), "_")
}

// PromptKey is the shared cache key for a chat message
func PromptKey(message string) string {
	return promptPrefix + Normalize(message)
}

// UserPromptKey scopes the prompt key to one caller
func UserPromptKey(userID, message string) string {
	return promptPrefix + userID + ":" + Normalize(message)
}
