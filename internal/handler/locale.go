package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/locale"
)

const (
	localeContextKey   = "__request_locale"
	languageCookieName = "wn_lang"
)

// LocaleMiddleware resolves request language and sets headers for downstream caching.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := requestLocale(c)
		c.Header("Content-Language", strings.ReplaceAll(pref.Locale, "_", "-"))
		appendVaryHeader(c, "Accept-Language", "Cookie")
		c.Next()
	}
}

func requestLocale(c *gin.Context) locale.Preference {
	if cached, exists := c.Get(localeContextKey); exists {
		if pref, ok := cached.(locale.Preference); ok {
			return pref
		}
	}
	pref := locale.PreferenceForLanguage(resolveLanguage(c))
	c.Set(localeContextKey, pref)
	return pref
}

func requestLanguage(c *gin.Context) string {
	return requestLocale(c).Language
}

func resolveLanguage(c *gin.Context) string {
	if override := locale.NormalizeLanguage(c.Query("lang")); override != "" {
		return override
	}
	if cookie := readLanguageCookie(c); cookie != "" {
		return cookie
	}
	return locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language"))
}

func readLanguageCookie(c *gin.Context) string {
	value, err := c.Cookie(languageCookieName)
	if err != nil {
		return ""
	}
	return locale.NormalizeLanguage(value)
}

func appendVaryHeader(c *gin.Context, headers ...string) {
	existing := c.Writer.Header().Get("Vary")
	seen := make(map[string]struct{})
	order := make([]string, 0, len(headers))
	for _, token := range append(strings.Split(existing, ","), headers...) {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		order = append(order, trimmed)
	}
	if len(order) > 0 {
		c.Header("Vary", strings.Join(order, ", "))
	}
}
