package stt

import "context"

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe transcribes the audio file named by req.AudioPath
	Transcribe(ctx context.Context, req Request) (*Result, error)

	// Name returns the name of the provider (e.g., "local", "openai", "google")
	Name() string
}

// Request describes one transcription job
type Request struct {
	AudioPath string // Path to a readable audio file
	Language  string // Caller-supplied language hint, passed to the engine verbatim
	FP16      bool   // Half-precision inference; only the local engine honors it
}
