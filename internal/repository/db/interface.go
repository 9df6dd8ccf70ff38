package db

import (
	"context"

	"github.com/shopspring/decimal"
)

// UserStore persists accounts used for sign-in
type UserStore interface {
	CreateUser(ctx context.Context, email, password, role string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// CreditStore is the credit ledger. Errors are never swallowed.
type CreditStore interface {
	EnsureAccount(ctx context.Context, userID string) (*CreditAccount, error)
	GetAccount(ctx context.Context, userID string) (*CreditAccount, error)
	DeductAtomic(ctx context.Context, userID string, amount int) (DeductResult, error)
	AddCredits(ctx context.Context, userID string, purchaseAmount int64, creditAmount int) (*CreditAccount, error)
}

// CostStore records estimated provider costs
type CostStore interface {
	RecordCost(ctx context.Context, record *CostRecord) error
	TotalCostByUser(ctx context.Context, userID string) (decimal.Decimal, error)
}

// PurchaseStore fulfils checkouts exactly once per session
type PurchaseStore interface {
	// FulfilPurchase records the purchase and credits the account in one
	// transaction. It reports false when the session was already fulfilled.
	FulfilPurchase(ctx context.Context, purchase *Purchase) (bool, *CreditAccount, error)
}

// Database defines the persistence interface used by the services
type Database interface {
	UserStore
	CreditStore
	CostStore
	PurchaseStore
	Close() error
}
