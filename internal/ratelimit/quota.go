package ratelimit

import (
	"context"
	"credit-chat/internal/logger"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const quotaWindow = 24 * time.Hour

// Result is the outcome of a quota check
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
}

// DailyQuota counts chat requests per user per UTC day in Redis
type DailyQuota struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewDailyQuota creates a quota backed by client. A nil client allows everything.
func NewDailyQuota(client redis.Cmdable) *DailyQuota {
	return &DailyQuota{client: client, now: time.Now}
}

// Key returns the counter key for userID on day
func Key(userID string, day time.Time) string {
	return fmt.Sprintf("ratelimit:chat_%s:%s", userID, day.UTC().Format("2006-01-02"))
}

// Allow counts one request and reports whether it is within limit. Store
// faults allow the request.
func (q *DailyQuota) Allow(ctx context.Context, userID string, limit int) Result {
	if q.client == nil || limit <= 0 {
		return Result{Allowed: true, Remaining: limit, Limit: limit}
	}

	key := Key(userID, q.now())

	pipe := q.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, quotaWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key}).WithError(err).Error("Rate limit store error, allowing request")
		return Result{Allowed: true, Remaining: limit, Limit: limit}
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	if count > limit {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"count":   count,
			"limit":   limit,
		}).Warn("Daily chat limit exceeded")
		return Result{Allowed: false, Remaining: 0, Limit: limit}
	}

	return Result{Allowed: true, Remaining: remaining, Limit: limit}
}
