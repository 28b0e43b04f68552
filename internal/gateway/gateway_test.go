package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voxbridge/internal/apperr"
	"voxbridge/internal/similarity"
	"voxbridge/internal/storage"
	"voxbridge/internal/stt"
)

func newTestGateway(t *testing.T, d Deps) (*Gateway, string) {
	t.Helper()
	dir := t.TempDir()
	if d.Audio == nil {
		d.Audio = storage.NewTempAudio(dir, storage.DefaultExt)
	}
	return New(d), dir
}

func requireAppErr(t *testing.T, err error, code apperr.Code, message string) *apperr.Error {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
	return appErr
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary audio left behind")
}

// --- Transcribe ---

func TestTranscribe_MissingAudio(t *testing.T) {
	engine := new(MockTranscriber)
	g, _ := newTestGateway(t, Deps{Transcriber: engine})

	_, err := g.Transcribe(context.Background(), nil, "en")
	requireAppErr(t, err, apperr.CodeMissingField, "No audio file provided")
	engine.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestTranscribe_MissingLanguage(t *testing.T) {
	engine := new(MockTranscriber)
	g, dir := newTestGateway(t, Deps{Transcriber: engine})

	_, err := g.Transcribe(context.Background(), strings.NewReader("audio"), "")
	requireAppErr(t, err, apperr.CodeMissingField, "No language specified")
	engine.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	assertDirEmpty(t, dir)
}

func TestTranscribe_EmptyAudioIsMissing(t *testing.T) {
	engine := new(MockTranscriber)
	g, dir := newTestGateway(t, Deps{Transcriber: engine})

	_, err := g.Transcribe(context.Background(), strings.NewReader(""), "en")
	requireAppErr(t, err, apperr.CodeMissingField, "No audio file provided")
	engine.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	assertDirEmpty(t, dir)
}

func TestTranscribe_Success(t *testing.T) {
	engine := new(MockTranscriber)
	g, dir := newTestGateway(t, Deps{Transcriber: engine})

	var seenPath string
	engine.On("Transcribe", mock.Anything, mock.MatchedBy(func(req stt.Request) bool {
		return req.Language == "en" && !req.FP16 && filepath.Ext(req.AudioPath) == ".webm"
	})).Run(func(args mock.Arguments) {
		req := args.Get(1).(stt.Request)
		seenPath = req.AudioPath
		data, err := os.ReadFile(req.AudioPath)
		require.NoError(t, err)
		assert.Equal(t, "webm-bytes", string(data))
	}).Return(&stt.Result{Transcript: " Hello world ", Provider: "mock-stt"}, nil).Once()

	got, err := g.Transcribe(context.Background(), strings.NewReader("webm-bytes"), "en")
	require.NoError(t, err)

	assert.Equal(t, " Hello world ", got)
	assert.Equal(t, dir, filepath.Dir(seenPath))
	assert.NoFileExists(t, seenPath)
	assertDirEmpty(t, dir)
	engine.AssertExpectations(t)
}

func TestTranscribe_LanguagePassedVerbatim(t *testing.T) {
	engine := new(MockTranscriber)
	g, _ := newTestGateway(t, Deps{Transcriber: engine})

	engine.On("Transcribe", mock.Anything, mock.MatchedBy(func(req stt.Request) bool {
		return req.Language == "English"
	})).Return(&stt.Result{Transcript: "hi"}, nil).Once()

	_, err := g.Transcribe(context.Background(), strings.NewReader("x"), "English")
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestTranscribe_EmptyTranscriptIsNotAnError(t *testing.T) {
	engine := new(MockTranscriber)
	g, _ := newTestGateway(t, Deps{Transcriber: engine})
	engine.On("Transcribe", mock.Anything, mock.Anything).Return(&stt.Result{}, nil).Once()

	got, err := g.Transcribe(context.Background(), strings.NewReader("silence"), "en")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestTranscribe_EngineFailureCleansUp(t *testing.T) {
	engine := new(MockTranscriber)
	g, dir := newTestGateway(t, Deps{Transcriber: engine})

	cause := errors.New("model crashed")
	engine.On("Transcribe", mock.Anything, mock.Anything).Return(nil, cause).Once()

	_, err := g.Transcribe(context.Background(), strings.NewReader("audio"), "en")
	appErr := requireAppErr(t, err, apperr.CodeTranscriptionFailed, "Failed to transcribe audio")
	assert.ErrorIs(t, appErr, cause)
	assertDirEmpty(t, dir)
}

func TestTranscribe_NilResult(t *testing.T) {
	engine := new(MockTranscriber)
	g, _ := newTestGateway(t, Deps{Transcriber: engine})
	engine.On("Transcribe", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := g.Transcribe(context.Background(), strings.NewReader("audio"), "en")
	requireAppErr(t, err, apperr.CodeTranscriptionFailed, "")
}

func TestTranscribe_OversizedUpload(t *testing.T) {
	engine := new(MockTranscriber)
	g, dir := newTestGateway(t, Deps{Transcriber: engine})

	body := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader(strings.Repeat("a", 64))), 16)
	_, err := g.Transcribe(context.Background(), body, "en")

	requireAppErr(t, err, apperr.CodePayloadTooLarge, "")
	engine.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	assertDirEmpty(t, dir)
}

func TestTranscribe_StorageFailureIsUnexpected(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	engine := new(MockTranscriber)
	g := New(Deps{Transcriber: engine, Audio: storage.NewTempAudio(filepath.Join(blocker, "sub"), ".webm")})

	_, err := g.Transcribe(context.Background(), strings.NewReader("audio"), "en")
	requireAppErr(t, err, apperr.CodeUnexpected, "")
}

type echoTranscriber struct {
	delay time.Duration
}

func (e *echoTranscriber) Name() string { return "echo" }

func (e *echoTranscriber) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	data, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, err
	}
	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &stt.Result{Transcript: string(data), Provider: e.Name()}, nil
}

func TestTranscribe_ContextDeadlinePropagates(t *testing.T) {
	g, dir := newTestGateway(t, Deps{Transcriber: &echoTranscriber{delay: time.Second}, EngineTimeout: 20 * time.Millisecond})

	_, err := g.Transcribe(context.Background(), strings.NewReader("audio"), "en")
	appErr := requireAppErr(t, err, apperr.CodeTranscriptionFailed, "")
	assert.ErrorIs(t, appErr, context.DeadlineExceeded)
	assertDirEmpty(t, dir)
}

func TestTranscribe_ConcurrentRequestsAreIsolated(t *testing.T) {
	audio := storage.NewTempAudio(t.TempDir(), storage.DefaultExt)
	g := New(Deps{Transcriber: &echoTranscriber{delay: 5 * time.Millisecond}, Audio: audio})

	const n = 16
	results := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Transcribe(context.Background(), strings.NewReader(fmt.Sprintf("clip-%02d", i)), "en")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("clip-%02d", i), results[i])
	}
	assert.EqualValues(t, 0, audio.Active())
	assertDirEmpty(t, audio.Dir())
}

// --- CheckModel ---

func TestCheckModel(t *testing.T) {
	assert.Equal(t, "medium", New(Deps{}).CheckModel())
	assert.Equal(t, "large-v3", New(Deps{ModelName: "large-v3"}).CheckModel())
}

// --- Translate ---

func TestTranslate_MissingFields(t *testing.T) {
	tests := []struct {
		name, text, source, target string
	}{
		{"no text", "", "es", "en"},
		{"no source", "Hola", "", "en"},
		{"no target", "Hola", "es", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockTranslator)
			g := New(Deps{Translator: engine})

			_, err := g.Translate(context.Background(), tt.text, tt.source, tt.target)
			requireAppErr(t, err, apperr.CodeMissingField, "Text, source language, and target language are required")
			engine.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTranslate_Success(t *testing.T) {
	engine := new(MockTranslator)
	g := New(Deps{Translator: engine})
	engine.On("Translate", mock.Anything, "Hola", "es", "en").Return("Hello", nil).Once()

	got, err := g.Translate(context.Background(), "Hola", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
	engine.AssertExpectations(t)
}

func TestTranslate_NormalizesLanguageCodes(t *testing.T) {
	engine := new(MockTranslator)
	g := New(Deps{Translator: engine})
	engine.On("Translate", mock.Anything, "Bonjour", "fr", "en").Return("Hello", nil).Once()
	engine.On("Translate", mock.Anything, "Bonjour", "auto", "pt-BR").Return("Olá", nil).Once()
	engine.On("Translate", mock.Anything, "Bonjour", "klingon!", "en").Return("?", nil).Once()

	_, err := g.Translate(context.Background(), "Bonjour", "FR", "English")
	require.NoError(t, err)
	_, err = g.Translate(context.Background(), "Bonjour", "auto", "pt-br")
	require.NoError(t, err)
	_, err = g.Translate(context.Background(), "Bonjour", "klingon!", "en")
	require.NoError(t, err)

	engine.AssertExpectations(t)
}

func TestTranslate_EngineFailure(t *testing.T) {
	engine := new(MockTranslator)
	g := New(Deps{Translator: engine})
	cause := errors.New("quota exceeded")
	engine.On("Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", cause).Once()

	_, err := g.Translate(context.Background(), "Hola", "es", "en")
	appErr := requireAppErr(t, err, apperr.CodeTranslationFailed, "Translation failed")
	assert.ErrorIs(t, appErr, cause)
}

// --- CalculateSimilarity ---

func TestCalculateSimilarity_MissingFields(t *testing.T) {
	scorer := new(MockScorer)
	g := New(Deps{Scorer: scorer})

	_, err := g.CalculateSimilarity(context.Background(), "", []string{"a"})
	requireAppErr(t, err, apperr.CodeMissingField, "User message and questions are required")

	_, err = g.CalculateSimilarity(context.Background(), "hello", nil)
	requireAppErr(t, err, apperr.CodeMissingField, "User message and questions are required")

	_, err = g.CalculateSimilarity(context.Background(), "hello", []string{})
	requireAppErr(t, err, apperr.CodeMissingField, "User message and questions are required")

	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculateSimilarity_PicksHighest(t *testing.T) {
	scorer := new(MockScorer)
	g := New(Deps{Scorer: scorer})
	scorer.On("Score", mock.Anything, "reset password", "opening hours").Return(0.1, nil).Once()
	scorer.On("Score", mock.Anything, "reset password", "how to reset my password").Return(0.8, nil).Once()
	scorer.On("Score", mock.Anything, "reset password", "refund policy").Return(0.2, nil).Once()

	best, err := g.CalculateSimilarity(context.Background(), "reset password",
		[]string{"opening hours", "how to reset my password", "refund policy"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "how to reset my password", *best)
	scorer.AssertExpectations(t)
}

func TestCalculateSimilarity_TieKeepsEarliest(t *testing.T) {
	scorer := new(MockScorer)
	g := New(Deps{Scorer: scorer})
	scorer.On("Score", mock.Anything, "q", "first").Return(0.5, nil).Once()
	scorer.On("Score", mock.Anything, "q", "second").Return(0.5, nil).Once()

	best, err := g.CalculateSimilarity(context.Background(), "q", []string{"first", "second"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "first", *best)
}

func TestCalculateSimilarity_NoPositiveScore(t *testing.T) {
	scorer := new(MockScorer)
	g := New(Deps{Scorer: scorer})
	scorer.On("Score", mock.Anything, "q", "zero").Return(0.0, nil).Once()
	scorer.On("Score", mock.Anything, "q", "negative").Return(-0.3, nil).Once()

	best, err := g.CalculateSimilarity(context.Background(), "q", []string{"zero", "negative"})
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestCalculateSimilarity_EngineFailure(t *testing.T) {
	scorer := new(MockScorer)
	g := New(Deps{Scorer: scorer})
	cause := errors.New("vectors unavailable")
	scorer.On("Score", mock.Anything, "q", "a").Return(0.0, cause).Once()

	_, err := g.CalculateSimilarity(context.Background(), "q", []string{"a", "b"})
	appErr := requireAppErr(t, err, apperr.CodeSimilarityFailed, "Failed to calculate similarity")
	assert.ErrorIs(t, appErr, cause)
	scorer.AssertNotCalled(t, "Score", mock.Anything, "q", "b")
}

func TestCalculateSimilarity_UsesBatchScorer(t *testing.T) {
	scorer := new(MockBatchScorer)
	g := New(Deps{Scorer: scorer})
	candidates := []string{"a", "b", "c"}
	scorer.On("ScoreAll", mock.Anything, "q", candidates).Return([]float64{0.2, 0.9, 0.9}, nil).Once()

	best, err := g.CalculateSimilarity(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "b", *best)
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
	scorer.AssertExpectations(t)
}

func TestCalculateSimilarity_BatchLengthMismatch(t *testing.T) {
	scorer := new(MockBatchScorer)
	g := New(Deps{Scorer: scorer})
	scorer.On("ScoreAll", mock.Anything, "q", mock.Anything).Return([]float64{0.9}, nil).Once()

	_, err := g.CalculateSimilarity(context.Background(), "q", []string{"a", "b"})
	requireAppErr(t, err, apperr.CodeSimilarityFailed, "")
}

// perCandidate hides the batch path of a scorer.
type perCandidate struct {
	similarity.Scorer
}

func TestCalculateSimilarity_BatchAndSingleAgree(t *testing.T) {
	lexical := similarity.NewLexicalScorer()
	batch := New(Deps{Scorer: lexical})
	single := New(Deps{Scorer: perCandidate{lexical}})

	query := "how can I change my password"
	candidates := []string{
		"what are your opening hours",
		"how do I change my password",
		"change password",
		"refund policy",
	}

	a, err := batch.CalculateSimilarity(context.Background(), query, candidates)
	require.NoError(t, err)
	b, err := single.CalculateSimilarity(context.Background(), query, candidates)
	require.NoError(t, err)

	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *a, *b)
	assert.Equal(t, "how do I change my password", *a)
}

func TestCalculateSimilarity_LexicalDisjointIsNull(t *testing.T) {
	g := New(Deps{Scorer: similarity.NewLexicalScorer()})

	best, err := g.CalculateSimilarity(context.Background(), "xyzzy", []string{"opening hours", "refund policy"})
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestBestMatch(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		scores     []float64
		want       string
		wantNil    bool
	}{
		{"single positive", []string{"a"}, []float64{0.1}, "a", false},
		{"highest wins", []string{"a", "b", "c"}, []float64{0.3, 0.7, 0.5}, "b", false},
		{"tie keeps first", []string{"a", "b"}, []float64{0.4, 0.4}, "a", false},
		{"later strictly higher", []string{"a", "b"}, []float64{0.4, 0.41}, "b", false},
		{"all zero", []string{"a", "b"}, []float64{0, 0}, "", true},
		{"all negative", []string{"a"}, []float64{-1}, "", true},
		{"empty", nil, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BestMatch(tt.candidates, tt.scores)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}
