package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voxbridge/internal/logger"
)

// DefaultOllamaURL is the address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultOllamaModel is a small general-purpose sentence embedding model.
const DefaultOllamaModel = "nomic-embed-text"

// OllamaScorer embeds texts with a locally served embedding model and
// compares the vectors by cosine similarity. No cloud credentials are needed.
type OllamaScorer struct {
	baseURL string
	model   string
	client  *http.Client
	log     *logger.Logger
}

// NewOllamaScorer creates a scorer for the Ollama server at baseURL
func NewOllamaScorer(baseURL, model string, log *logger.Logger) *OllamaScorer {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		log:     log,
	}
}

// Name returns the provider name
func (s *OllamaScorer) Name() string {
	return ProviderOllama
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// IsAvailable reports whether the server answers its model listing
func (s *OllamaScorer) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Score embeds both texts in one request
func (s *OllamaScorer) Score(ctx context.Context, a, b string) (float64, error) {
	scores, err := s.ScoreAll(ctx, a, []string{b})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScoreAll embeds the query and all candidates in one /api/embed call
func (s *OllamaScorer) ScoreAll(ctx context.Context, query string, candidates []string) ([]float64, error) {
	startTime := time.Now()

	input := make([]string, 0, len(candidates)+1)
	input = append(input, query)
	input = append(input, candidates...)

	body, err := json.Marshal(ollamaEmbedRequest{Model: s.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(result.Embeddings) != len(input) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(result.Embeddings), len(input))
	}

	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = cosine(result.Embeddings[0], result.Embeddings[i+1])
	}

	s.log.Debug("Scored candidates", logger.Fields(
		"model", s.model,
		"candidates", len(candidates),
		logger.FieldDuration, time.Since(startTime).Milliseconds(),
	))
	return scores, nil
}
