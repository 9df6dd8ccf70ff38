package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// ValidationError is returned for malformed or out-of-range input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation wraps a validator error as a ValidationError
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Message: err.Error()}
}

// InsufficientCreditsError carries the caller's unchanged balance
type InsufficientCreditsError struct {
	Remaining int
}

func (e *InsufficientCreditsError) Error() string {
	return "Insufficient credits"
}

// ProviderFailure is one failed attempt against a chat backend
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersFailedError aggregates every attempt made for a request
type AllProvidersFailedError struct {
	Failures []ProviderFailure
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return "All AI providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual provider errors to errors.Is/As
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// HTTPStatus maps an error to the status code surfaced to clients
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	var creditsErr *InsufficientCreditsError
	var providersErr *AllProvidersFailedError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &creditsErr):
		return http.StatusPaymentRequired
	case errors.As(err, &providersErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a user. Internal failures are
// replaced by fallback.
func PublicMessage(err error, fallback string) string {
	var validationErr *ValidationError
	var creditsErr *InsufficientCreditsError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &creditsErr):
		return creditsErr.Error()
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded, try again later"
	case errors.Is(err, ErrConflict):
		return "Resource already exists"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return fallback
	}
}
