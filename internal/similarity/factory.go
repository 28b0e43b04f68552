package similarity

import (
	"fmt"
	"strings"

	"voxbridge/internal/logger"
)

// Provider names accepted by SIMILARITY_PROVIDER
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderLexical = "lexical"
)

// DefaultProvider is an embedding engine that runs locally.
const DefaultProvider = ProviderOllama

// Config selects and configures the similarity engine
type Config struct {
	Provider string

	OllamaURL   string
	OllamaModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Validate checks the provider name and its required settings
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for SIMILARITY_PROVIDER=ollama")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for SIMILARITY_PROVIDER=openai")
		}
	case ProviderLexical:
	default:
		return fmt.Errorf("unsupported similarity provider: %s. Supported: ollama, openai, lexical", c.Provider)
	}
	return nil
}

// CreateScorer creates a similarity scorer based on configuration
func CreateScorer(cfg Config, log *logger.Logger) (Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("similarity")

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		log.Info("Creating OpenAI similarity scorer", logger.Fields("model", cfg.OpenAIModel))
		return NewOpenAIScorer(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log), nil
	case ProviderLexical:
		log.Warn("Using lexical similarity scorer; paraphrases without shared words will not match")
		return NewLexicalScorer(), nil
	default:
		log.Info("Creating Ollama similarity scorer", logger.Fields("url", cfg.OllamaURL, "model", cfg.OllamaModel))
		return NewOllamaScorer(cfg.OllamaURL, cfg.OllamaModel, log), nil
	}
}
