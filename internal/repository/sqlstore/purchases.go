package sqlstore

import (
	"context"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FulfilPurchase inserts the purchase keyed by its payment session and
// credits the account in the same transaction. A session seen before is a
// no-op that reports false.
func (s *Store) FulfilPurchase(ctx context.Context, purchase *db.Purchase) (bool, *db.CreditAccount, error) {
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO purchases (id, session_id, user_id, amount_cents, credits)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (session_id) DO NOTHING
	`

	res, err := tx.ExecContext(ctx, tx.Rebind(query),
		purchase.ID, purchase.SessionID, purchase.UserID, purchase.AmountCents, purchase.Credits)
	if err != nil {
		return false, nil, fmt.Errorf("error recording purchase: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, nil, fmt.Errorf("error reading purchase result: %w", err)
	}
	if inserted == 0 {
		logger.Log.WithField("session_id", purchase.SessionID).Info("Purchase already fulfilled")
		return false, nil, nil
	}

	account, err := s.addCredits(ctx, tx, purchase.UserID, purchase.AmountCents, purchase.Credits)
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("error committing purchase: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"session_id": purchase.SessionID,
		"user_id":    purchase.UserID,
		"credits":    purchase.Credits,
	}).Info("Purchase fulfilled")

	return true, account, nil
}
