package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// NoResponse is returned in place of an empty completion
const NoResponse = "No response"

const systemPromptChat = "You are a helpful assistant for an AI image generator website. Reply under 50 characters if asked about image features. App is free to try; login needed to save images."

const systemPromptShort = "You are a helpful assistant for an AI image generator website. Reply under 50 characters for image feature questions."

// ErrEmptyResponse is returned when a backend answers without any candidate
var ErrEmptyResponse = errors.New("no response from API")

// Provider is a chat backend. Implementations hold no per-call state.
type Provider interface {
	Chat(ctx context.Context, message string) (string, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, message string) (string, error)

func (f ProviderFunc) Chat(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// unavailableProvider stands in for a backend that could not be configured
// so that fallback still reaches the other one
type unavailableProvider struct {
	err error
}

func (p unavailableProvider) Chat(ctx context.Context, message string) (string, error) {
	return "", p.err
}

// Unavailable returns a Provider whose every call fails with err
func Unavailable(format string, args ...interface{}) Provider {
	return unavailableProvider{err: fmt.Errorf(format, args...)}
}

func finalizeReply(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoResponse
	}
	return text
}
