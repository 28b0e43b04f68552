package translate

import "context"

// Provider translates text between two languages
type Provider interface {
	// Translate returns text rendered in target. source may be "auto" for
	// engines that detect the input language.
	Translate(ctx context.Context, text, source, target string) (string, error)

	// Name returns the name of the provider (e.g., "google", "openai")
	Name() string
}
