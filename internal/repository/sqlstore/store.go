package sqlstore

import (
	"context"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Ensure Store implements db.Database interface
var _ db.Database = (*Store)(nil)

// Store implements db.Database on top of sqlx. Queries are written with ?
// placeholders and rebound for the active driver.
type Store struct {
	conn           *sqlx.DB
	defaultBalance int
}

// Open connects to the driver named in dbConfig and prepares the schema
func Open(dbConfig config.DatabaseConfig, defaultBalance int) (*Store, error) {
	switch dbConfig.Driver {
	case "sqlite":
		return NewSQLiteDB(dbConfig.Path, defaultBalance)
	case "postgres", "":
		return NewPostgresDB(dbConfig, defaultBalance)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
	}
}

// NewPostgresDB creates a new Store backed by PostgreSQL and runs migrations
func NewPostgresDB(dbConfig config.DatabaseConfig, defaultBalance int) (*Store, error) {
	logger.Log.WithField("host", dbConfig.Host).Info("Connecting to PostgreSQL")

	conn, err := sqlx.Connect("postgres", dbConfig.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	conn.SetMaxOpenConns(dbConfig.MaxOpenConns)
	conn.SetMaxIdleConns(dbConfig.MaxIdleConns)
	conn.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	logger.Log.Info("Successfully connected to PostgreSQL")

	store := &Store{conn: conn, defaultBalance: defaultBalance}

	if err = store.RunMigrations(dbConfig.MigrationsPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return store, nil
}

// RunMigrations runs database migrations using golang-migrate
func (s *Store) RunMigrations(sourceURL string) error {
	driver, err := postgres.WithInstance(s.conn.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.Info("Database migrations applied successfully")
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Ping checks that the connection is usable
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.conn
}
