package translate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"voxbridge/internal/logger"
	"voxbridge/internal/openaiclient"
)

// OpenAIProvider translates with an OpenAI chat model
type OpenAIProvider struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAIProvider creates an OpenAI translation provider
func NewOpenAIProvider(apiKey, baseURL, model string, log *logger.Logger) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client: openaiclient.New(apiKey, baseURL),
		model:  model,
		log:    log,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

type chatTranslation struct {
	Translation *string `json:"translation"`
}

// Translate asks the chat model for a JSON-wrapped translation
func (p *OpenAIProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	systemPrompt, userPrompt := BuildPrompt(text, source, target)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	p.log.Debug("OpenAI translation received", logger.Fields(
		"model", p.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	))

	var out chatTranslation
	content := extractJSONFromMarkdown(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response as JSON: %w", err)
	}
	if out.Translation == nil {
		return "", fmt.Errorf("OpenAI response has no translation field")
	}
	return *out.Translation, nil
}
