package llm

import (
	"context"
	"credit-chat/internal/logger"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GeminiProvider implements Provider using the Gemini API
type GeminiProvider struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiProvider creates the client once; it is reused for every call
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(1)
	model.SetMaxOutputTokens(500)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPromptChat)},
	}

	logger.Log.WithField("model", modelName).Info("Initialized Gemini provider")

	return &GeminiProvider{client: client, model: model, modelName: modelName}, nil
}

// Chat sends a single-turn message
func (p *GeminiProvider) Chat(ctx context.Context, message string) (string, error) {
	logger.Log.WithFields(logrus.Fields{
		"model":          p.modelName,
		"message_length": len(message),
	}).Debug("Calling Gemini")

	resp, err := p.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text, err := geminiText(resp)
	if err != nil {
		return "", err
	}
	return finalizeReply(text), nil
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
