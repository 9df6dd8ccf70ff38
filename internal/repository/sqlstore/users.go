package sqlstore

import (
	"context"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser creates a new user with hashed password
func (s *Store) CreateUser(ctx context.Context, email, password, role string) (*db.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	if role == "" {
		role = db.RoleUser
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
	INSERT INTO users (id, email, password_hash, role, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err = s.conn.ExecContext(ctx, s.conn.Rebind(query), user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %s: %w", user.Email, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("Created new user")

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`
	return s.getUser(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID retrieves a user by id
func (s *Store) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`
	return s.getUser(ctx, query, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*db.User, error) {
	var user db.User
	if err := s.conn.GetContext(ctx, &user, s.conn.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the user's hashed password
func VerifyPassword(user *db.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
