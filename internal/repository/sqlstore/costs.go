package sqlstore

import (
	"context"
	"credit-chat/internal/repository/db"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordCost stores one cost estimate
func (s *Store) RecordCost(ctx context.Context, record *db.CostRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
	INSERT INTO cost_records (id, user_id, operation, provider, model, cost, credits_charged, request_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, s.conn.Rebind(query),
		record.ID, record.UserID, record.Operation, record.Provider, record.Model,
		record.Cost, record.CreditsCharged, record.RequestID)
	if err != nil {
		return fmt.Errorf("error recording cost: %w", err)
	}
	return nil
}

// TotalCostByUser sums recorded costs for a user
func (s *Store) TotalCostByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(cost), 0) FROM cost_records WHERE user_id = ?`
	if err := s.conn.QueryRowxContext(ctx, s.conn.Rebind(query), userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("error summing costs: %w", err)
	}
	return total, nil
}
