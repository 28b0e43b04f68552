package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voxbridge/internal/logger"
)

// LocalProvider implements STT against a self-hosted Whisper HTTP sidecar.
// The sidecar loads the model once and serves POST /transcribe.
type LocalProvider struct {
	baseURL string
	model   string
	client  *http.Client
	log     *logger.Logger
}

// NewLocalProvider creates a provider for the sidecar at baseURL
func NewLocalProvider(baseURL, model string, log *logger.Logger) *LocalProvider {
	return &LocalProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		log:     log,
	}
}

// Name returns the provider name
func (p *LocalProvider) Name() string {
	return ProviderLocal
}

// IsAvailable checks if the sidecar is reachable
func (p *LocalProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcribe uploads the audio file to the sidecar
func (p *LocalProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	var buf bytes.Buffer
	contentType, err := writeTranscribeForm(&buf, filepath.Base(req.AudioPath), audioData, [][2]string{
		{"model", p.model},
		{"language", req.Language},
		{"fp16", strconv.FormatBool(req.FP16)},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	p.log.Debug("Calling Whisper sidecar", logger.Fields("size", len(audioData), "language", req.Language))
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.log.Warn("Whisper sidecar error", logger.Fields("status", resp.StatusCode, "body", preview(body)))
		return &Result{
			Provider:    p.Name(),
			RawResponse: string(body),
		}, fmt.Errorf("whisper returned status %d: %s", resp.StatusCode, preview(body))
	}

	var wr whisperResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return &Result{
			Provider:    p.Name(),
			RawResponse: string(body),
		}, fmt.Errorf("failed to parse whisper response: %w", err)
	}

	p.log.Debug("Transcription successful", logger.Fields(
		"length", len(wr.Text),
		"segments", len(wr.Segments),
		logger.FieldDuration, time.Since(startTime).Milliseconds(),
	))

	return &Result{
		Transcript:  wr.Text,
		Language:    wr.Language,
		Provider:    p.Name(),
		RawResponse: string(body),
	}, nil
}

// writeTranscribeForm writes the multipart body the sidecar expects: the audio
// file followed by the given fields in order.
func writeTranscribeForm(w io.Writer, filename string, audio []byte, fields [][2]string) (string, error) {
	writer := multipart.NewWriter(w)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return writer.FormDataContentType(), nil
}
