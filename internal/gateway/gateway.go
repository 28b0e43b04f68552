// Package gateway validates requests and forwards them to the transcription,
// translation and similarity engines. It does not serve HTTP itself; every
// failure it returns is an *apperr.Error.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"voxbridge/internal/apperr"
	"voxbridge/internal/logger"
	"voxbridge/internal/similarity"
	"voxbridge/internal/storage"
	"voxbridge/internal/stt"
	"voxbridge/internal/translate"
)

// DefaultModelName is reported by CheckModel when no model name is configured.
const DefaultModelName = "medium"

// DefaultEngineTimeout bounds each engine call when Deps.EngineTimeout is zero.
const DefaultEngineTimeout = 120 * time.Second

// Client-facing validation messages.
const (
	msgNoAudio          = "No audio file provided"
	msgNoLanguage       = "No language specified"
	msgTranslateFields  = "Text, source language, and target language are required"
	msgSimilarityFields = "User message and questions are required"
)

// Deps are the collaborators a Gateway is built from.
type Deps struct {
	Transcriber   stt.Provider
	Translator    translate.Provider
	Scorer        similarity.Scorer
	Audio         *storage.TempAudio
	ModelName     string
	EngineTimeout time.Duration
	Logger        *logger.Logger
}

// Gateway is safe for concurrent use; it holds no per-request state.
type Gateway struct {
	transcriber stt.Provider
	translator  translate.Provider
	scorer      similarity.Scorer
	audio       *storage.TempAudio
	modelName   string
	timeout     time.Duration
	log         *logger.Logger
}

// New creates a Gateway.
func New(d Deps) *Gateway {
	if d.ModelName == "" {
		d.ModelName = DefaultModelName
	}
	if d.EngineTimeout <= 0 {
		d.EngineTimeout = DefaultEngineTimeout
	}
	if d.Audio == nil {
		d.Audio = storage.NewTempAudio("", storage.DefaultExt)
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Gateway{
		transcriber: d.Transcriber,
		translator:  d.Translator,
		scorer:      d.Scorer,
		audio:       d.Audio,
		modelName:   d.ModelName,
		timeout:     d.EngineTimeout,
		log:         d.Logger.WithComponent("gateway"),
	}
}

// Transcribe stores audio in a request-scoped temporary file, runs the
// transcription engine on it and returns the transcript verbatim. The file is
// removed before Transcribe returns, on success and failure alike.
func (g *Gateway) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	if audio == nil {
		return "", apperr.MissingField(msgNoAudio)
	}
	if language == "" {
		return "", apperr.MissingField(msgNoLanguage)
	}

	path, release, err := g.audio.Save(audio)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, storage.ErrEmptyAudio):
			return "", apperr.MissingField(msgNoAudio)
		case errors.As(err, &tooLarge):
			return "", apperr.PayloadTooLarge(tooLarge.Limit)
		default:
			g.log.Error("Failed to store audio", logger.Fields(logger.FieldError, err))
			return "", apperr.Unexpected(err)
		}
	}
	defer func() {
		if err := release(); err != nil {
			g.log.Warn("Failed to remove temp audio", logger.Fields("path", path, logger.FieldError, err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	res, err := g.transcriber.Transcribe(ctx, stt.Request{
		AudioPath: path,
		Language:  language,
		FP16:      false,
	})
	if err != nil {
		g.log.Error("Transcription failed", logger.Fields(
			logger.FieldProvider, g.transcriber.Name(),
			"language", language,
			logger.FieldError, err,
		))
		return "", apperr.TranscriptionFailed(err)
	}
	if res == nil {
		return "", apperr.TranscriptionFailed(errors.New("engine returned no result"))
	}

	g.log.Info("Transcription complete", logger.Fields(
		logger.FieldProvider, res.Provider,
		"language", language,
		"length", len(res.Transcript),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return res.Transcript, nil
}

// CheckModel reports the name of the speech model in use.
func (g *Gateway) CheckModel() string {
	return g.modelName
}

// Translate renders text from source into target. Language codes are
// normalized first; codes the normalizer does not know pass through.
func (g *Gateway) Translate(ctx context.Context, text, source, target string) (string, error) {
	if text == "" || source == "" || target == "" {
		return "", apperr.MissingField(msgTranslateFields)
	}
	source = translate.NormalizeLanguage(source)
	target = translate.NormalizeLanguage(target)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.translator.Translate(ctx, text, source, target)
	if err != nil {
		g.log.Error("Translation failed", logger.Fields(
			logger.FieldProvider, g.translator.Name(),
			"source", source,
			"target", target,
			logger.FieldError, err,
		))
		return "", apperr.TranslationFailed(err)
	}

	g.log.Info("Translation complete", logger.Fields(
		logger.FieldProvider, g.translator.Name(),
		"source", source,
		"target", target,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return out, nil
}

// CalculateSimilarity returns the candidate most similar to userMsg, or nil
// when no candidate scores above zero. Ties go to the earliest candidate.
func (g *Gateway) CalculateSimilarity(ctx context.Context, userMsg string, candidates []string) (*string, error) {
	if userMsg == "" || len(candidates) == 0 {
		return nil, apperr.MissingField(msgSimilarityFields)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	scores, err := g.scoreAll(ctx, userMsg, candidates)
	if err != nil {
		g.log.Error("Similarity scoring failed", logger.Fields(
			logger.FieldProvider, g.scorer.Name(),
			"candidates", len(candidates),
			logger.FieldError, err,
		))
		return nil, apperr.SimilarityFailed(err)
	}

	best := BestMatch(candidates, scores)
	g.log.Info("Similarity complete", logger.Fields(
		logger.FieldProvider, g.scorer.Name(),
		"candidates", len(candidates),
		"matched", best != nil,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return best, nil
}

func (g *Gateway) scoreAll(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if batch, ok := g.scorer.(similarity.BatchScorer); ok {
		scores, err := batch.ScoreAll(ctx, query, candidates)
		if err != nil {
			return nil, err
		}
		if len(scores) != len(candidates) {
			return nil, errors.New("scorer returned a score count that does not match the candidates")
		}
		return scores, nil
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		s, err := g.scorer.Score(ctx, query, c)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}

// BestMatch scans candidates in order and keeps the first one whose score is
// strictly greater than every score seen before it, starting from 0.
func BestMatch(candidates []string, scores []float64) *string {
	var best *string
	highest := 0.0
	for i := range candidates {
		if i >= len(scores) {
			break
		}
		if scores[i] > highest {
			highest = scores[i]
			best = &candidates[i]
		}
	}
	if best == nil {
		return nil
	}
	match := *best
	return &match
}
