package similarity

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// LexicalScorer compares texts as bags of lower-cased word tokens. It needs
// no network and no model, so it is the default engine.
type LexicalScorer struct{}

// NewLexicalScorer creates a lexical scorer
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Name returns the provider name
func (s *LexicalScorer) Name() string {
	return ProviderLexical
}

// Score returns the term-frequency cosine of a and b, in [0, 1]
func (s *LexicalScorer) Score(_ context.Context, a, b string) (float64, error) {
	return termCosine(termFrequencies(a), termFrequencies(b)), nil
}

// ScoreAll tokenizes the query once and scores every candidate against it
func (s *LexicalScorer) ScoreAll(ctx context.Context, query string, candidates []string) ([]float64, error) {
	q := termFrequencies(query)
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = termCosine(q, termFrequencies(c))
	}
	return scores, nil
}

func termFrequencies(text string) map[string]float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}

func termCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot, normA, normB float64
	for tok, x := range a {
		dot += x * b[tok]
		normA += x * x
	}
	for _, y := range b {
		normB += y * y
	}

	// Rounding can push identical bags just above 1.
	return math.Min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
