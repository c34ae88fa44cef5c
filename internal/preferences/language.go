// Package preferences holds each learner's UI language.
package preferences

import (
	"fmt"
	"strings"
)

// Language is a supported UI language.
type Language string

const (
	English Language = "en"
	French  Language = "fr"
	Arabic  Language = "ar"
)

// Default is used until a learner picks a language.
const Default = English

// UnsupportedLanguageError reports a language outside the fixed set.
type UnsupportedLanguageError struct {
	Value string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Value)
}

// Parse accepts en, fr or ar in any case.
func Parse(value string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(value))); l {
	case English, French, Arabic:
		return l, nil
	default:
		return "", &UnsupportedLanguageError{Value: value}
	}
}

// ParseOr returns fallback when value is not a supported language.
func ParseOr(value string, fallback Language) Language {
	if l, err := Parse(value); err == nil {
		return l
	}
	return fallback
}

// SpeechTag is the BCP-47 voice tag used for synthesis and recognition.
func (l Language) SpeechTag() string {
	switch l {
	case Arabic:
		return "ar-XA"
	case French:
		return "fr-FR"
	default:
		return "en-US"
	}
}
