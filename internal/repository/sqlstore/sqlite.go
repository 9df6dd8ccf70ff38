package sqlstore

import (
	"credit-chat/internal/logger"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewSQLiteDB opens an embedded store for local runs and tests. The schema
// mirrors migrations/ and is applied inline.
func NewSQLiteDB(path string, defaultBalance int) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// A single connection serialises writers; an in-memory database also
	// exists only on the connection that created it.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := migrateSQLite(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.WithField("path", path).Info("SQLite store ready")

	return &Store{conn: conn, defaultBalance: defaultBalance}, nil
}

func migrateSQLite(conn *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_accounts (
			user_id TEXT PRIMARY KEY,
			credits INTEGER NOT NULL CHECK (credits >= 0),
			amount INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cost_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			cost NUMERIC NOT NULL,
			credits_charged INTEGER NOT NULL,
			request_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cost_records_user ON cost_records(user_id)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			credits INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
