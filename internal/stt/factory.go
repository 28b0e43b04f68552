package stt

import (
	"context"
	"fmt"
	"strings"

	"voxbridge/internal/googleauth"
	"voxbridge/internal/logger"
)

// Provider names accepted by STT_PROVIDER
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Config selects and configures the transcription engine
type Config struct {
	Provider string

	WhisperURL   string
	WhisperModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleProjectID string
	GoogleKey       string // API key, key file path or JSON
	GoogleURL       string
}

// Validate checks the provider name and its required settings
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderLocal:
		if c.WhisperURL == "" {
			return fmt.Errorf("WHISPER_URL is required for STT_PROVIDER=local")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for STT_PROVIDER=openai")
		}
	case ProviderGoogle:
		// Project ID is optional when using an API key
		if !googleauth.IsAPIKey(c.GoogleKey) && c.GoogleProjectID == "" {
			return fmt.Errorf("GOOGLE_STT_PROJECT_ID is required when using a service account")
		}
	default:
		return fmt.Errorf("unsupported STT provider: %s. Supported: local, openai, google", c.Provider)
	}
	return nil
}

// CreateProvider creates an STT provider based on configuration
func CreateProvider(cfg Config, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("stt")

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		log.Info("Creating OpenAI STT provider", logger.Fields("model", cfg.OpenAIModel))
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log), nil
	case ProviderGoogle:
		if googleauth.IsAPIKey(cfg.GoogleKey) {
			log.Info("Creating Google STT provider with API key")
		} else {
			log.Info("Creating Google STT provider", logger.Fields("project", cfg.GoogleProjectID))
		}
		return NewGoogleProvider(context.Background(), GoogleOptions{
			ProjectID: cfg.GoogleProjectID,
			KeyData:   cfg.GoogleKey,
			URL:       cfg.GoogleURL,
		}, log)
	default:
		log.Info("Creating local Whisper STT provider", logger.Fields("url", cfg.WhisperURL, "model", cfg.WhisperModel))
		return NewLocalProvider(cfg.WhisperURL, cfg.WhisperModel, log), nil
	}
}
