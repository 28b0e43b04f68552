package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voxbridge/internal/stt"
)

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Name() string {
	return "mock-stt"
}

func (m *MockTranscriber) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*stt.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Name() string {
	return "mock-translate"
}

func (m *MockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Name() string {
	return "mock-scorer"
}

func (m *MockScorer) Score(ctx context.Context, a, b string) (float64, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(float64), args.Error(1)
}

type MockBatchScorer struct {
	MockScorer
}

func (m *MockBatchScorer) ScoreAll(ctx context.Context, query string, candidates []string) ([]float64, error) {
	args := m.Called(ctx, query, candidates)
	if scores, ok := args.Get(0).([]float64); ok {
		return scores, args.Error(1)
	}
	return nil, args.Error(1)
}
