package api

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	args := m.Called(ctx, audio, language)
	return args.String(0), args.Error(1)
}

func (m *MockService) CheckModel() string {
	return m.Called().String(0)
}

func (m *MockService) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

func (m *MockService) CalculateSimilarity(ctx context.Context, userMsg string, candidates []string) (*string, error) {
	args := m.Called(ctx, userMsg, candidates)
	if best, ok := args.Get(0).(*string); ok {
		return best, args.Error(1)
	}
	return nil, args.Error(1)
}
