package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"voxbridge/internal/googleauth"
	"voxbridge/internal/logger"
)

const defaultGoogleTranslateURL = "https://translation.googleapis.com/language/translate/v2"

// GoogleProvider implements translation with the Cloud Translation v2 REST API
type GoogleProvider struct {
	endpoint string
	auth     *googleauth.Auth
	log      *logger.Logger
}

// NewGoogleProvider creates a Google translation provider. keyData follows
// googleauth: API key, key file path, service account JSON or empty for
// application default credentials.
func NewGoogleProvider(ctx context.Context, keyData, endpoint string, log *logger.Logger) (*GoogleProvider, error) {
	if endpoint == "" {
		endpoint = defaultGoogleTranslateURL
	}
	auth, err := googleauth.Resolve(ctx, keyData, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("google translate credentials: %w", err)
	}
	return &GoogleProvider{endpoint: endpoint, auth: auth, log: log}, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

type googleTranslateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Translate calls the v2 translate endpoint
func (p *GoogleProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	reqBody := googleTranslateRequest{
		Q:      []string{text},
		Target: target,
		Format: "text",
	}
	if source != AutoDetect {
		reqBody.Source = source
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := p.endpoint
	if p.auth.UsesAPIKey() {
		u, err := url.Parse(p.endpoint)
		if err != nil {
			return "", fmt.Errorf("invalid translate URL: %w", err)
		}
		q := u.Query()
		q.Set("key", p.auth.APIKey)
		u.RawQuery = q.Encode()
		apiURL = u.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.auth.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Google Translate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var tr googleTranslateResponse
	parseErr := json.Unmarshal(body, &tr)
	if tr.Error != nil {
		return "", fmt.Errorf("Google Translate API error: %s", tr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Google Translate API returned status %d", resp.StatusCode)
	}
	if parseErr != nil {
		return "", fmt.Errorf("failed to parse Google Translate response: %w", parseErr)
	}
	if len(tr.Data.Translations) == 0 {
		return "", fmt.Errorf("Google Translate returned no translations")
	}

	t := tr.Data.Translations[0]
	if t.DetectedSourceLanguage != "" {
		p.log.Debug("Detected source language", logger.Fields("language", t.DetectedSourceLanguage))
	}
	// format "text" returns plain text; entities in it are literal.
	return t.TranslatedText, nil
}
