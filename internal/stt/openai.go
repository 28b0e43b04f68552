package stt

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"voxbridge/internal/logger"
	"voxbridge/internal/openaiclient"
)

// OpenAIProvider implements STT using the OpenAI audio transcription API
type OpenAIProvider struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAIProvider creates a new OpenAI STT provider
func NewOpenAIProvider(apiKey, baseURL, model string, log *logger.Logger) *OpenAIProvider {
	if model == "" {
		model = openai.Whisper1
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

// Transcribe uploads the audio file to OpenAI
func (p *OpenAIProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: req.AudioPath,
		Language: req.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return &Result{Provider: p.Name()}, fmt.Errorf("OpenAI transcription error: %w", err)
	}

	p.log.Debug("Transcription successful", logger.Fields(
		"model", p.model,
		"length", len(resp.Text),
		logger.FieldDuration, time.Since(startTime).Milliseconds(),
	))

	return &Result{
		Transcript: resp.Text,
		Language:   resp.Language,
		Provider:   p.Name(),
	}, nil
}
