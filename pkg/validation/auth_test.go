package validation

import (
	"strings"
	"testing"
)

func TestAuthRequestValidator_ValidateEmail(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "ada@example.com"},
		{name: "plus and dots", email: "ada.lovelace+chat@mail.example.org"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "ada.example.com", wantErr: true},
		{name: "missing tld", email: "ada@example", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestAuthRequestValidator_ValidatePassword(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{name: "valid", password: "correct-horse"},
		{name: "empty", password: "", wantErr: true, errMsg: "password cannot be empty"},
		{name: "too short", password: "short", wantErr: true, errMsg: "password must be at least 8 characters long, got 5"},
		{name: "too long", password: strings.Repeat("p", 73), wantErr: true, errMsg: "password must be at most 72 characters long, got 73"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err.Error() != tt.errMsg {
				t.Errorf("ValidatePassword() error message = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestAuthRequestValidator_ValidateRegisterRequest(t *testing.T) {
	validator := NewAuthRequestValidator()

	if err := validator.ValidateRegisterRequest("ada@example.com", "correct-horse"); err != nil {
		t.Errorf("Expected valid request, got: %v", err)
	}
	if err := validator.ValidateRegisterRequest("bad", "correct-horse"); err == nil {
		t.Error("Expected error for invalid email")
	}
	if err := validator.ValidateRegisterRequest("ada@example.com", "123"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestAuthRequestValidator_ValidateLoginRequest(t *testing.T) {
	validator := NewAuthRequestValidator()

	tests := []struct {
		email    string
		password string
		wantErr  bool
	}{
		{email: "ada@example.com", password: "x"},
		{email: "", password: "x", wantErr: true},
		{email: "ada@example.com", password: "", wantErr: true},
	}

	for _, tt := range tests {
		if err := validator.ValidateLoginRequest(tt.email, tt.password); (err != nil) != tt.wantErr {
			t.Errorf("ValidateLoginRequest(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}
