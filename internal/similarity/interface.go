// Package similarity scores how close two sentences are in meaning.
// Scores are comparable only within one Scorer; higher is closer.
package similarity

import "context"

// Scorer computes a similarity score for a pair of texts
type Scorer interface {
	Score(ctx context.Context, a, b string) (float64, error)
	Name() string
}

// BatchScorer scores many candidates against one query in a single pass.
// ScoreAll returns one score per candidate, in candidate order.
type BatchScorer interface {
	Scorer
	ScoreAll(ctx context.Context, query string, candidates []string) ([]float64, error)
}
