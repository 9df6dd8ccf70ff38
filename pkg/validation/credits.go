package validation

import "fmt"

// MaxCheckoutCredits caps a single checkout
const MaxCheckoutCredits = 10000

// ValidateGrant validates a manual credit grant
func ValidateGrant(amount int64, credits int) error {
	if amount < 1 {
		return fmt.Errorf("amount must be at least 1, got %d", amount)
	}
	if credits < 1 {
		return fmt.Errorf("credits must be at least 1, got %d", credits)
	}
	return nil
}

// ValidateCheckoutCredits validates the credit count for a checkout session
func ValidateCheckoutCredits(credits int) error {
	if credits < 1 || credits > MaxCheckoutCredits {
		return fmt.Errorf("credits must be between 1 and %d, got %d", MaxCheckoutCredits, credits)
	}
	return nil
}
