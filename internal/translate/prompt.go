package translate

import (
	"fmt"
	"strings"
)

// BuildPrompt builds the system and user prompts for an LLM translation
func BuildPrompt(text, source, target string) (string, string) {
	systemPrompt := `You are a translation engine.
Translate the user's text faithfully. Do not add explanations, notes or quotes.
Keep names, numbers and formatting unchanged.
Return valid JSON of the form {"translation": "..."} and nothing else.`

	from := "the detected source language"
	if source != AutoDetect {
		from = fmt.Sprintf("language code %q", source)
	}

	userPrompt := fmt.Sprintf(`Translate from %s to language code %q.

Text:
"""
%s
"""`, from, target, text)

	return systemPrompt, userPrompt
}

// extractJSONFromMarkdown removes a surrounding ``` or ```json fence
func extractJSONFromMarkdown(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
