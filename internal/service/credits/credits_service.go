package credits

import (
	"context"
	"credit-chat/internal/analytics"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"credit-chat/pkg/validation"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CreditsService exposes balance reads and manual grants
type CreditsService struct {
	ledger db.CreditStore
	events analytics.Tracker
}

// NewCreditsService creates a new CreditsService. events may be nil.
func NewCreditsService(ledger db.CreditStore, events analytics.Tracker) *CreditsService {
	return &CreditsService{ledger: ledger, events: events}
}

// GetBalance returns the caller's balance, 0 when no account exists yet
func (s *CreditsService) GetBalance(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.ErrUnauthenticated
	}

	account, err := s.ledger.GetAccount(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return account.Credits, nil
}

// EnsureAccount creates the caller's account with the default balance
func (s *CreditsService) EnsureAccount(ctx context.Context, userID string) (*db.CreditAccount, error) {
	account, err := s.ledger.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure credit account: %w", err)
	}
	return account, nil
}

// Grant adds purchased credits to a user's balance
func (s *CreditsService) Grant(ctx context.Context, userID string, amount int64, credits int, requestID string) (*db.CreditAccount, error) {
	if userID == "" {
		return nil, apperrors.Validation(errors.New("user_id is required"))
	}
	if err := validation.ValidateGrant(amount, credits); err != nil {
		return nil, apperrors.Validation(err)
	}

	account, err := s.ledger.AddCredits(ctx, userID, amount, credits)
	if err != nil {
		return nil, fmt.Errorf("failed to add credits: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"amount":     amount,
		"credits":    credits,
		"balance":    account.Credits,
		"request_id": requestID,
	}).Info("Granted credits")

	if s.events != nil {
		s.events.TrackCreditPurchase(amount, credits, userID, requestID)
	}
	return account, nil
}
