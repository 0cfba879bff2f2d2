package queryir

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage validates a BCP 47 language tag and returns it in the
// lower-case form the Wikidata label service expects ("zh-Hans" → "zh-hans").
// An empty tag yields DefaultLanguage.
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage, nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return strings.ToLower(parsed.String()), nil
}
