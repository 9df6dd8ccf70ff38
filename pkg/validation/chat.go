package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest chat message accepted, in characters
const MaxMessageLength = 500

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct {
	isValidProvider func(string) bool
}

// NewChatRequestValidator creates a validator that accepts the providers
// reported by isValidProvider. A nil func accepts any provider name.
func NewChatRequestValidator(isValidProvider func(string) bool) *ChatRequestValidator {
	return &ChatRequestValidator{isValidProvider: isValidProvider}
}

// NormalizeMessage trims the message and checks its length
func (v *ChatRequestValidator) NormalizeMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("Message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", fmt.Errorf("Message is too long (max %d characters)", MaxMessageLength)
	}
	return message, nil
}

// ValidateProvider validates an optional provider name
func (v *ChatRequestValidator) ValidateProvider(provider string) error {
	if provider == "" || v.isValidProvider == nil {
		return nil
	}
	if !v.isValidProvider(provider) {
		return fmt.Errorf("unsupported provider: %s", provider)
	}
	return nil
}
