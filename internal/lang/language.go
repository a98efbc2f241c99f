// Package lang validates and normalizes language hints passed to the
// transcription provider.
package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains ISO 639-1 language codes accepted as transcription
// hints. This is not exhaustive but covers the languages the provider
// documents; unknown codes fail validation rather than being silently sent.
var validLanguages = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "ca": true,
	"cs": true, "da": true, "de": true, "el": true, "en": true,
	"es": true, "et": true, "fa": true, "fi": true, "fr": true,
	"he": true, "hi": true, "hr": true, "hu": true, "id": true,
	"it": true, "ja": true, "ko": true, "lt": true, "lv": true,
	"ms": true, "nl": true, "no": true, "pl": true, "pt": true,
	"ro": true, "ru": true, "sk": true, "sl": true, "sr": true,
	"sv": true, "sw": true, "ta": true, "th": true, "tl": true,
	"tr": true, "uk": true, "ur": true, "vi": true, "zh": true,
}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Validate checks if the language code is valid.
// Accepts ISO 639-1 codes (e.g., "en", "fr") and locales (e.g., "pt-BR").
// An empty code means auto-detect and is valid.
func Validate(code string) error {
	if code == "" {
		return nil
	}

	if !validLanguages[BaseCode(code)] {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			code, ErrInvalid)
	}

	return nil
}

// BaseCode extracts the ISO 639-1 base language code from a locale.
// The transcription provider only accepts base codes, not regional variants.
// Examples: "pt-BR" -> "pt", "zh-CN" -> "zh", "en" -> "en"
func BaseCode(code string) string {
	if code == "" {
		return ""
	}
	normalized := Normalize(code)
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}
