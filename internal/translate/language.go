package translate

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// AutoDetect asks the engine to detect the source language.
const AutoDetect = "auto"

// namedLanguages are the languages that can also be given by English name.
var namedLanguages = []string{
	"af", "am", "ar", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy", "da", "de", "el", "en",
	"eo", "es", "et", "eu", "fa", "fi", "fr", "ga", "gl", "gu", "ha", "he", "hi", "hr", "hu",
	"hy", "id", "ig", "is", "it", "ja", "jv", "ka", "kk", "km", "kn", "ko", "ku", "ky", "la",
	"lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my", "ne", "nl", "no",
	"pa", "pl", "ps", "pt", "ro", "ru", "sd", "si", "sk", "sl", "so", "sq", "sr", "su", "sv",
	"sw", "ta", "te", "tg", "th", "tl", "tr", "uk", "ur", "uz", "vi", "xh", "yi", "yo", "zh", "zu",
}

var byName = func() map[string]string {
	names := display.English.Languages()
	m := make(map[string]string, len(namedLanguages))
	for _, code := range namedLanguages {
		if name := names.Name(language.Make(code)); name != "" {
			m[strings.ToLower(name)] = code
		}
	}
	return m
}()

// NormalizeLanguage canonicalizes a language code ("EN" -> "en",
// "pt-br" -> "pt-BR") or English language name ("German" -> "de").
// Anything else, including "auto", is returned unchanged.
func NormalizeLanguage(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, AutoDetect) {
		return strings.ToLower(trimmed)
	}
	if c, ok := byName[strings.ToLower(trimmed)]; ok {
		return c
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return code
	}
	return tag.String()
}
