// Package googleauth resolves Google Cloud credentials for the REST engines.
//
// A key value may be:
//   - an API key (39 characters, starting with "AIzaSy")
//   - a path to a service account JSON key file
//   - the service account JSON itself
//   - empty, in which case application default credentials are used
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope is the OAuth scope used for Speech and Translation.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Auth is a resolved credential: either an API key sent as ?key= or an
// OAuth2 client that signs requests itself.
type Auth struct {
	APIKey string
	Client *http.Client
}

// UsesAPIKey reports whether requests need the key query parameter.
func (a *Auth) UsesAPIKey() bool {
	return a.APIKey != ""
}

// IsAPIKey reports whether keyData looks like a Google API key.
func IsAPIKey(keyData string) bool {
	k := strings.TrimSpace(keyData)
	return len(k) == 39 && strings.HasPrefix(k, "AIzaSy")
}

// Resolve turns keyData into an Auth. API key auth uses a plain client with
// the given timeout; service accounts get an oauth2 client.
func Resolve(ctx context.Context, keyData string, timeout time.Duration) (*Auth, error) {
	keyData = strings.TrimSpace(keyData)

	if IsAPIKey(keyData) {
		return &Auth{
			APIKey: keyData,
			Client: &http.Client{Timeout: timeout},
		}, nil
	}

	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	var creds *google.Credentials
	if keyData == "" {
		found, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		creds = found
	} else {
		jsonData, err := keyJSON(keyData)
		if err != nil {
			return nil, err
		}
		parsed, err := google.CredentialsFromJSON(ctx, jsonData, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials from JSON: %w", err)
		}
		creds = parsed
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = timeout
	return &Auth{Client: client}, nil
}

func keyJSON(keyData string) ([]byte, error) {
	if strings.HasPrefix(keyData, "{") {
		return []byte(keyData), nil
	}
	data, err := os.ReadFile(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file '%s': %w", keyData, err)
	}
	return data, nil
}
