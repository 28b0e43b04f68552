package translate

import (
	"context"
	"fmt"
	"strings"

	"voxbridge/internal/logger"
)

// Provider names accepted by TRANSLATE_PROVIDER
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// Config selects and configures the translation engine
type Config struct {
	Provider string

	GoogleKey string // API key, key file path, JSON, or empty for default credentials
	GoogleURL string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Validate checks the provider name and its required settings
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderGoogle:
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for TRANSLATE_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported translate provider: %s. Supported: google, openai", c.Provider)
	}
	return nil
}

// CreateProvider creates a translation provider based on configuration
func CreateProvider(cfg Config, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("translate")

	if strings.ToLower(cfg.Provider) == ProviderOpenAI {
		log.Info("Creating OpenAI translate provider", logger.Fields("model", cfg.OpenAIModel))
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log), nil
	}
	log.Info("Creating Google translate provider", logger.Fields("url", cfg.GoogleURL))
	return NewGoogleProvider(context.Background(), cfg.GoogleKey, cfg.GoogleURL, log)
}
