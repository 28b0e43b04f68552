package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"voxbridge/internal/logger"
	"voxbridge/internal/openaiclient"
)

// OpenAIScorer embeds texts with an OpenAI embedding model and compares the
// vectors by cosine similarity.
type OpenAIScorer struct {
	client *openai.Client
	model  openai.EmbeddingModel
	log    *logger.Logger
}

// NewOpenAIScorer creates an embedding-based scorer
func NewOpenAIScorer(apiKey, baseURL, model string, log *logger.Logger) *OpenAIScorer {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIScorer{
		client: openaiclient.New(apiKey, baseURL),
		model:  openai.EmbeddingModel(model),
		log:    log,
	}
}

// Name returns the provider name
func (s *OpenAIScorer) Name() string {
	return ProviderOpenAI
}

// Score embeds both texts in one request
func (s *OpenAIScorer) Score(ctx context.Context, a, b string) (float64, error) {
	scores, err := s.ScoreAll(ctx, a, []string{b})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScoreAll embeds the query and all candidates in one request
func (s *OpenAIScorer) ScoreAll(ctx context.Context, query string, candidates []string) ([]float64, error) {
	startTime := time.Now()

	input := make([]string, 0, len(candidates)+1)
	input = append(input, query)
	input = append(input, candidates...)

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(input))
	}

	// Data carries an index per input; do not rely on response order.
	vectors := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(input) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = CosineSimilarity(vectors[0], vectors[i+1])
	}

	s.log.Debug("Scored candidates", logger.Fields(
		"model", string(s.model),
		"candidates", len(candidates),
		"tokens", resp.Usage.TotalTokens,
		logger.FieldDuration, time.Since(startTime).Milliseconds(),
	))
	return scores, nil
}
