package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles ordered by privilege
const (
	RoleUser       = "user"
	RoleSubscriber = "subscriber"
	RoleAdmin      = "admin"
)

// User represents a registered account
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// CreditAccount is the per-user prepaid balance. Credits never go below zero
// and Amount (purchased currency units) never decreases.
type CreditAccount struct {
	UserID  string `db:"user_id"`
	Credits int    `db:"credits"`
	Amount  int64  `db:"amount"`
}

// DeductResult is the outcome of an atomic conditional decrement
type DeductResult struct {
	Success   bool
	Remaining int
}

// CostRecord is the estimated vendor cost of one metered operation
type CostRecord struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	Operation      string          `db:"operation"`
	Provider       string          `db:"provider"`
	Model          string          `db:"model"`
	Cost           decimal.Decimal `db:"cost"`
	CreditsCharged int             `db:"credits_charged"`
	RequestID      string          `db:"request_id"`
}

// Purchase is a fulfilled checkout, unique per payment session
type Purchase struct {
	ID          string `db:"id"`
	SessionID   string `db:"session_id"`
	UserID      string `db:"user_id"`
	AmountCents int64  `db:"amount_cents"`
	Credits     int    `db:"credits"`
}
