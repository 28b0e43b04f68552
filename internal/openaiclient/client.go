// Package openaiclient builds go-openai clients for the engines.
package openaiclient

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// New returns a client for apiKey. A non-empty baseURL points the client at an
// OpenAI-compatible server instead of api.openai.com.
func New(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}
