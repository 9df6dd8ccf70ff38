package llm

import (
	"context"
	"credit-chat/internal/logger"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements Provider using the OpenAI chat completions API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates the client once. Extra options are passed to the
// SDK, e.g. a base URL override.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)

	logger.Log.WithField("model", model).Info("Initialized OpenAI provider")

	return &OpenAIProvider{client: client, model: model}, nil
}

// Chat sends a single-turn message
func (p *OpenAIProvider) Chat(ctx context.Context, message string) (string, error) {
	logger.Log.WithFields(logrus.Fields{
		"model":          p.model,
		"message_length": len(message),
	}).Debug("Calling OpenAI")

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPromptShort),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return finalizeReply(completion.Choices[0].Message.Content), nil
}
