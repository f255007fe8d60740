package locale

import (
	"strings"
	"time"
)

const (
	LanguageEnglish = "en"
	LanguageChinese = "zh"
	LanguageGerman  = "de"
)

type Preference struct {
	Language   string
	Locale     string
	DateLayout string
}

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(trimmed, "zh") || trimmed == "cn":
		return LanguageChinese
	case strings.HasPrefix(trimmed, "de"):
		return LanguageGerman
	case strings.HasPrefix(trimmed, "en"):
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage returns the first supported language in header order.
func LanguageFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if language := NormalizeLanguage(tag); language != "" {
			return language
		}
	}
	return ""
}

// PreferenceForLanguage falls back to US English, matching how dates are shown
// in the app when the client sends nothing usable.
func PreferenceForLanguage(language string) Preference {
	switch NormalizeLanguage(language) {
	case LanguageChinese:
		return Preference{Language: LanguageChinese, Locale: "zh_CN", DateLayout: "2006/1/2"}
	case LanguageGerman:
		return Preference{Language: LanguageGerman, Locale: "de_DE", DateLayout: "2.1.2006"}
	default:
		return Preference{Language: LanguageEnglish, Locale: "en_US", DateLayout: "1/2/2006"}
	}
}

// FormatDate renders the calendar date of t in loc using the short numeric
// layout of language.
func FormatDate(t time.Time, language string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(PreferenceForLanguage(language).DateLayout)
}
