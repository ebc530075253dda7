package models

import "fmt"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = LanguageEnglish

// ParseLanguage maps a request language code onto a supported Language.
// An empty code selects DefaultLanguage.
func ParseLanguage(code string) (Language, error) {
	switch Language(code) {
	case "":
		return DefaultLanguage, nil
	case LanguageEnglish, LanguageArabic:
		return Language(code), nil
	default:
		return "", fmt.Errorf("unsupported language %q", code)
	}
}

// Name returns the English name of the language for use in prompts.
func (l Language) Name() string {
	switch l {
	case LanguageArabic:
		return "Arabic"
	default:
		return "English"
	}
}
