package sqlstore

import (
	"context"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	insertAccountQuery = `
	INSERT INTO credit_accounts (user_id, credits, amount)
	VALUES (?, ?, 0)
	ON CONFLICT (user_id) DO NOTHING
	`

	selectAccountQuery = `SELECT user_id, credits, amount FROM credit_accounts WHERE user_id = ?`

	// Single conditional statement: concurrent requests for the same user
	// are serialised by the row lock and the credits >= ? predicate.
	deductQuery = `
	UPDATE credit_accounts
	SET credits = credits - ?, updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND credits >= ?
	RETURNING credits
	`

	addCreditsQuery = `
	UPDATE credit_accounts
	SET amount = amount + ?, credits = credits + ?, updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ?
	RETURNING user_id, credits, amount
	`
)

// EnsureAccount creates the account with the default balance if it does not
// exist and returns the stored record
func (s *Store) EnsureAccount(ctx context.Context, userID string) (*db.CreditAccount, error) {
	return s.ensureAccount(ctx, s.conn, userID)
}

func (s *Store) ensureAccount(ctx context.Context, q sqlx.ExtContext, userID string) (*db.CreditAccount, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	res, err := q.ExecContext(ctx, q.Rebind(insertAccountQuery), userID, s.defaultBalance)
	if err != nil {
		return nil, fmt.Errorf("error creating credit account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "credits": s.defaultBalance}).Info("Created credit account")
	}

	return s.getAccount(ctx, q, userID)
}

// GetAccount returns the account or apperrors.ErrNotFound
func (s *Store) GetAccount(ctx context.Context, userID string) (*db.CreditAccount, error) {
	return s.getAccount(ctx, s.conn, userID)
}

func (s *Store) getAccount(ctx context.Context, q sqlx.ExtContext, userID string) (*db.CreditAccount, error) {
	var account db.CreditAccount
	err := sqlx.GetContext(ctx, q, &account, q.Rebind(selectAccountQuery), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving credit account: %w", err)
	}
	return &account, nil
}

// DeductAtomic decrements the balance by amount only if it stays non-negative
func (s *Store) DeductAtomic(ctx context.Context, userID string, amount int) (db.DeductResult, error) {
	if amount <= 0 {
		return db.DeductResult{}, &apperrors.ValidationError{Message: fmt.Sprintf("deduction amount must be positive, got %d", amount)}
	}

	if _, err := s.ensureAccount(ctx, s.conn, userID); err != nil {
		return db.DeductResult{}, err
	}

	var remaining int
	err := s.conn.QueryRowxContext(ctx, s.conn.Rebind(deductQuery), amount, userID, amount).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		account, getErr := s.getAccount(ctx, s.conn, userID)
		if getErr != nil {
			return db.DeductResult{}, getErr
		}
		logger.Log.WithFields(logrus.Fields{
			"user_id":   userID,
			"requested": amount,
			"available": account.Credits,
		}).Warn("Insufficient credits for deduction")
		return db.DeductResult{Success: false, Remaining: account.Credits}, nil
	}
	if err != nil {
		return db.DeductResult{}, fmt.Errorf("error deducting credits: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"deducted":  amount,
		"remaining": remaining,
	}).Info("Credits deducted")

	return db.DeductResult{Success: true, Remaining: remaining}, nil
}

// AddCredits increases both the purchased amount and the balance, creating
// the account first when needed
func (s *Store) AddCredits(ctx context.Context, userID string, purchaseAmount int64, creditAmount int) (*db.CreditAccount, error) {
	return s.addCredits(ctx, s.conn, userID, purchaseAmount, creditAmount)
}

func (s *Store) addCredits(ctx context.Context, q sqlx.ExtContext, userID string, purchaseAmount int64, creditAmount int) (*db.CreditAccount, error) {
	if purchaseAmount < 0 || creditAmount < 0 {
		return nil, &apperrors.ValidationError{Message: "credit amounts cannot be negative"}
	}

	if _, err := s.ensureAccount(ctx, q, userID); err != nil {
		return nil, err
	}

	var account db.CreditAccount
	err := sqlx.GetContext(ctx, q, &account, q.Rebind(addCreditsQuery), purchaseAmount, creditAmount, userID)
	if err != nil {
		return nil, fmt.Errorf("error adding credits: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  purchaseAmount,
		"added":   creditAmount,
		"credits": account.Credits,
	}).Info("Credits added")

	return &account, nil
}
