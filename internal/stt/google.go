package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxbridge/internal/googleauth"
	"voxbridge/internal/logger"
)

const defaultGoogleSTTURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleOptions configures the Google provider
type GoogleOptions struct {
	ProjectID string
	KeyData   string // API key, key file path or service account JSON
	URL       string // speech:recognize endpoint
	Timeout   time.Duration
}

// GoogleProvider implements STT using Google Cloud Speech-to-Text REST API
type GoogleProvider struct {
	projectID  string
	endpoint   string
	auth       *googleauth.Auth
	httpClient *http.Client
	log        *logger.Logger
}

// NewGoogleProvider creates a new Google STT provider
func NewGoogleProvider(ctx context.Context, opts GoogleOptions, log *logger.Logger) (*GoogleProvider, error) {
	if opts.URL == "" {
		opts.URL = defaultGoogleSTTURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 90 * time.Second
	}

	auth, err := googleauth.Resolve(ctx, opts.KeyData, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("google stt credentials: %w", err)
	}
	if auth.UsesAPIKey() {
		log.Debug("Using API key authentication")
	} else {
		log.Debug("Using service account authentication", logger.Fields("project", opts.ProjectID))
	}

	return &GoogleProvider{
		projectID:  opts.ProjectID,
		endpoint:   opts.URL,
		auth:       auth,
		httpClient: auth.Client,
		log:        log,
	}, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// GoogleSTTRequest represents Google Speech-to-Text API request
type GoogleSTTRequest struct {
	Config GoogleSTTConfig `json:"config"`
	Audio  GoogleSTTAudio  `json:"audio"`
}

// GoogleSTTConfig represents recognition config
type GoogleSTTConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz,omitempty"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model,omitempty"`
}

// GoogleSTTAudio represents audio data
type GoogleSTTAudio struct {
	Content string `json:"content"` // Base64 encoded
}

// GoogleSTTResponse represents Google Speech-to-Text API response
type GoogleSTTResponse struct {
	Results []GoogleSTTResult `json:"results"`
	Error   *GoogleSTTError   `json:"error,omitempty"`
}

// GoogleSTTResult represents a recognition result
type GoogleSTTResult struct {
	Alternatives []GoogleSTTAlternative `json:"alternatives"`
	LanguageCode string                 `json:"languageCode,omitempty"`
}

// GoogleSTTAlternative represents a transcript alternative
type GoogleSTTAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// GoogleSTTError represents an API error
type GoogleSTTError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type googleErrorEnvelope struct {
	Error *GoogleSTTError `json:"error"`
}

// Transcribe transcribes an audio file using Google Cloud Speech-to-Text REST API
func (p *GoogleProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	audioBytes, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	fileExt := filepath.Ext(req.AudioPath)
	encoding, sampleRate := getGoogleAudioConfig(fileExt)
	p.log.Debug("Processing audio file", logger.Fields(
		"size", len(audioBytes),
		"extension", fileExt,
		"encoding", encoding,
	))

	reqJSON, err := json.Marshal(GoogleSTTRequest{
		Config: GoogleSTTConfig{
			Encoding:                   encoding,
			SampleRateHertz:            sampleRate,
			LanguageCode:               req.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: GoogleSTTAudio{
			Content: base64.StdEncoding.EncodeToString(audioBytes),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL, err := p.requestURL()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if !p.auth.UsesAPIKey() && p.projectID != "" {
		httpReq.Header.Set("x-goog-user-project", p.projectID)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return &Result{Provider: p.Name()}, fmt.Errorf("failed to send request to Google Speech-to-Text: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	p.log.Debug("Response preview", logger.Fields("body", preview(body)))

	if resp.StatusCode != http.StatusOK {
		var env googleErrorEnvelope
		if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
			return &Result{
				Provider:    p.Name(),
				RawResponse: string(body),
			}, fmt.Errorf("Google Speech-to-Text API error: %s", env.Error.Message)
		}
		return &Result{
			Provider:    p.Name(),
			RawResponse: string(body),
		}, fmt.Errorf("Google Speech-to-Text API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var sttResp GoogleSTTResponse
	if err := json.Unmarshal(body, &sttResp); err != nil {
		return &Result{
			Provider:    p.Name(),
			RawResponse: string(body),
		}, fmt.Errorf("failed to parse Google Speech-to-Text response: %w", err)
	}
	if sttResp.Error != nil {
		return &Result{
			Provider:    p.Name(),
			RawResponse: string(body),
		}, fmt.Errorf("Google Speech-to-Text API error: %s", sttResp.Error.Message)
	}

	// Each result covers a consecutive stretch of audio; the first
	// alternative is the most likely one.
	var transcript strings.Builder
	var confidence float64
	var counted int
	var language string
	for _, r := range sttResp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(r.Alternatives[0].Transcript)
		confidence += r.Alternatives[0].Confidence
		counted++
		if language == "" {
			language = r.LanguageCode
		}
	}
	if counted > 0 {
		confidence /= float64(counted)
	}

	p.log.Debug("Transcription successful", logger.Fields(
		"confidence", confidence,
		"length", transcript.Len(),
		logger.FieldDuration, time.Since(startTime).Milliseconds(),
	))

	return &Result{
		Transcript:  transcript.String(),
		Confidence:  confidence,
		Language:    language,
		Provider:    p.Name(),
		RawResponse: string(body),
	}, nil
}

func (p *GoogleProvider) requestURL() (string, error) {
	if !p.auth.UsesAPIKey() {
		return p.endpoint, nil
	}
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid Google Speech-to-Text URL: %w", err)
	}
	q := u.Query()
	q.Set("key", p.auth.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getGoogleAudioConfig determines encoding and sample rate based on file extension.
// A zero sample rate lets the API read it from the container header.
func getGoogleAudioConfig(fileExt string) (string, int) {
	switch strings.ToLower(fileExt) {
	case ".webm":
		return "WEBM_OPUS", 48000
	case ".wav":
		return "LINEAR16", 0
	case ".mp3":
		return "MP3", 44100
	case ".ogg":
		return "OGG_OPUS", 48000
	case ".flac":
		return "FLAC", 0
	default:
		return "ENCODING_UNSPECIFIED", 0
	}
}
