package matchers

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages covers the languages seen in the collected subreddits.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Hindi,
}

type LanguageDetector struct {
	detector lingua.LanguageDetector
}

func NewLanguageDetector(languages ...lingua.Language) *LanguageDetector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithPreloadedLanguageModels().
		Build()
	return &LanguageDetector{detector: detector}
}

// Detect returns the lowercase ISO 639-1 code of the text's language, or ""
// when the text is blank or the language cannot be determined.
func (d *LanguageDetector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
