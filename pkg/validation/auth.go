package validation

import (
	"errors"
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthRequestValidator validates authentication-related requests
type AuthRequestValidator struct{}

// NewAuthRequestValidator creates a new AuthRequestValidator
func NewAuthRequestValidator() *AuthRequestValidator {
	return &AuthRequestValidator{}
}

// ValidatePassword validates a password
func (v *AuthRequestValidator) ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long, got %d", len(password))
	}

	// bcrypt ignores input past 72 bytes
	if len(password) > 72 {
		return fmt.Errorf("password must be at most 72 characters long, got %d", len(password))
	}

	return nil
}

// ValidateEmail validates an email address
func (v *AuthRequestValidator) ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}

	if len(email) > 255 {
		return fmt.Errorf("email must be at most 255 characters long, got %d", len(email))
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	return nil
}

// ValidateLoginRequest validates a login request
func (v *AuthRequestValidator) ValidateLoginRequest(email, password string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}

	if password == "" {
		return errors.New("password cannot be empty")
	}

	return nil
}

// ValidateRegisterRequest validates a registration request
func (v *AuthRequestValidator) ValidateRegisterRequest(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}

	return v.ValidatePassword(password)
}
