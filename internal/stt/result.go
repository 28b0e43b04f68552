package stt

// Result represents the result of a speech-to-text transcription
type Result struct {
	Transcript  string  // The transcribed text, as returned by the engine
	Confidence  float64 // Confidence score (0.0-1.0), may be 0 if not provided
	Language    string  // Language reported by the engine, if any
	Provider    string  // The provider used (e.g., "local", "google")
	RawResponse string  // Raw response from the provider (for debugging/logging)
}

// previewLimit caps raw response bodies written to logs
const previewLimit = 500

func preview(body []byte) string {
	if len(body) > previewLimit {
		return string(body[:previewLimit]) + "..."
	}
	return string(body)
}
