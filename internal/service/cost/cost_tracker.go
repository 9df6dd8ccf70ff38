package cost

import (
	"context"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Rates are USD per 1K tokens
var chatRates = map[string]map[string]decimal.Decimal{
	config.ProviderGemini: {
		"gemini-2.5-flash": decimal.RequireFromString("0.000075"),
		"default":          decimal.RequireFromString("0.0001"),
	},
	config.ProviderOpenAI: {
		"gpt-4o-mini": decimal.RequireFromString("0.00015"),
		"default":     decimal.RequireFromString("0.0002"),
	},
}

// Chat replies are short; assume 100 tokens
var assumedTokenFraction = decimal.RequireFromString("0.1")

// Tracker estimates and records provider spend
type Tracker struct {
	store db.CostStore
}

// NewTracker creates a new Tracker
func NewTracker(store db.CostStore) *Tracker {
	return &Tracker{store: store}
}

// Estimate returns the estimated cost of one operation
func Estimate(operation, provider, model string) decimal.Decimal {
	rates, ok := chatRates[provider]
	if !ok {
		return decimal.Zero
	}
	rate, ok := rates[model]
	if !ok {
		rate = rates["default"]
	}
	return rate.Mul(assumedTokenFraction)
}

// Track records the cost of a served request. Failures are logged only.
func (t *Tracker) Track(ctx context.Context, userID, operation, provider, model string, creditsCharged int, requestID string) {
	record := &db.CostRecord{
		UserID:         userID,
		Operation:      operation,
		Provider:       provider,
		Model:          model,
		Cost:           Estimate(operation, provider, model),
		CreditsCharged: creditsCharged,
		RequestID:      requestID,
	}

	if err := t.store.RecordCost(ctx, record); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":    userID,
			"provider":   provider,
			"request_id": requestID,
		}).WithError(err).Error("Failed to record cost")
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"provider": provider,
		"model":    model,
		"cost":     record.Cost.String(),
	}).Debug("Recorded cost")
}

// UserTotal returns the user's accumulated cost, zero on error
func (t *Tracker) UserTotal(ctx context.Context, userID string) decimal.Decimal {
	total, err := t.store.TotalCostByUser(ctx, userID)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to total costs")
		return decimal.Zero
	}
	return total
}
