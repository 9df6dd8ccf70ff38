package llm

import (
	"context"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Secondary backend drivers
const (
	DriverOpenAI     = "openai"
	DriverOpenRouter = "openrouter"
)

// Registry holds the providers built at startup, keyed by catalog id
type Registry struct {
	catalog   *config.ProviderCatalog
	providers map[string]Provider
}

// NewRegistry checks that every catalog entry has a provider
func NewRegistry(catalog *config.ProviderCatalog, providers map[string]Provider) (*Registry, error) {
	for _, info := range catalog.GetProviders() {
		if _, ok := providers[info.ID]; !ok {
			return nil, fmt.Errorf("no adapter registered for provider %q", info.ID)
		}
	}
	return &Registry{catalog: catalog, providers: providers}, nil
}

// Get returns the provider registered under name
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Order returns provider names to try: requested first, then the other.
// An empty requested name selects the catalog default.
func (r *Registry) Order(requested string) []string {
	if requested == "" {
		requested = r.catalog.GetDefaultProvider()
	}
	order := []string{requested}
	if other := r.catalog.Other(requested); other != "" && other != requested {
		order = append(order, other)
	}
	return order
}

// Model returns the catalog model name for a provider
func (r *Registry) Model(name string) string {
	for _, info := range r.catalog.GetProviders() {
		if info.ID == name {
			return info.Model
		}
	}
	return ""
}

// Close releases providers that hold client resources
func (r *Registry) Close() error {
	var firstErr error
	for name, p := range r.providers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("closing %s provider: %w", name, err)
			}
		}
	}
	return firstErr
}

// NewProviders builds the chat backends once for the lifetime of the process.
// A backend that cannot be configured is registered as unavailable so the
// other one still serves requests.
func NewProviders(ctx context.Context, appConfig *config.AppConfig) (*Registry, error) {
	llmConfig := appConfig.LLM
	providers := make(map[string]Provider, 2)

	gemini, err := NewGeminiProvider(ctx, llmConfig.GeminiAPIKey, llmConfig.GeminiModel)
	if err != nil {
		logger.Log.WithError(err).Warn("Gemini provider unavailable")
		providers[config.ProviderGemini] = Unavailable("gemini unavailable: %v", err)
	} else {
		providers[config.ProviderGemini] = gemini
	}

	secondary, err := newSecondary(ctx, llmConfig)
	if err != nil {
		logger.Log.WithError(err).WithField("driver", llmConfig.SecondaryDriver).Warn("Secondary provider unavailable")
		providers[config.ProviderOpenAI] = Unavailable("openai unavailable: %v", err)
	} else {
		providers[config.ProviderOpenAI] = secondary
	}

	logger.Log.WithFields(logrus.Fields{
		"primary":          appConfig.Providers.GetDefaultProvider(),
		"secondary_driver": llmConfig.SecondaryDriver,
	}).Info("Chat providers ready")

	return NewRegistry(appConfig.Providers, providers)
}

func newSecondary(ctx context.Context, llmConfig config.LLMConfig) (Provider, error) {
	switch llmConfig.SecondaryDriver {
	case DriverOpenAI, "":
		return NewOpenAIProvider(llmConfig.OpenAIAPIKey, llmConfig.OpenAIModel)
	case DriverOpenRouter:
		return NewOpenRouterProvider(ctx, llmConfig.OpenRouterAPIKey, llmConfig.OpenRouterModel)
	default:
		return nil, fmt.Errorf("unknown secondary driver: %s", llmConfig.SecondaryDriver)
	}
}
