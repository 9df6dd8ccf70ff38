package llm

import (
	"context"
	"credit-chat/internal/logger"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements Provider through Genkit's OpenAI-compatible
// plugin pointed at OpenRouter. It can stand in for the secondary backend.
type OpenRouterProvider struct {
	genkit *genkit.Genkit
	model  string
}

// NewOpenRouterProvider initialises Genkit with the OpenRouter plugin
func NewOpenRouterProvider(ctx context.Context, apiKey, model string) (*OpenRouterProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not configured")
	}

	if !strings.HasPrefix(model, "openrouter/") {
		model = "openrouter/" + model
	}

	g := genkit.Init(ctx,
		genkit.WithPlugins(&compat_oai.OpenAICompatible{
			Provider: "openrouter",
			APIKey:   apiKey,
			BaseURL:  openRouterBaseURL,
		}),
		genkit.WithDefaultModel(model),
	)

	logger.Log.WithField("model", model).Info("Initialized Genkit with OpenRouter provider")

	return &OpenRouterProvider{genkit: g, model: model}, nil
}

// Chat sends a single-turn message
func (p *OpenRouterProvider) Chat(ctx context.Context, message string) (string, error) {
	logger.Log.WithFields(logrus.Fields{
		"model":          p.model,
		"message_length": len(message),
	}).Debug("Calling Genkit")

	messages := []*ai.Message{
		{Role: ai.RoleSystem, Content: []*ai.Part{ai.NewTextPart(systemPromptShort)}},
		{Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart(message)}},
	}

	resp, err := genkit.Generate(ctx, p.genkit,
		ai.WithMessages(messages...),
		ai.WithModelName(p.model),
		ai.WithConfig(&openai.ChatCompletionNewParams{
			Temperature: openai.Float(1),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("genkit generation failed: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}

	return finalizeReply(resp.Text()), nil
}
