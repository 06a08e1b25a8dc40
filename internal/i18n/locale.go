package i18n

import (
	"net/http"
	"strings"
)

// DefaultLocale is used when the client asks for nothing we can serve.
const DefaultLocale = "en"

// LocaleFromRequest picks the email locale from the Accept-Language header.
// A locale is supported exactly when templates exist for it; there is no
// separate allow-list to drift out of sync.
func LocaleFromRequest(r *http.Request) string {
	if r == nil {
		return DefaultLocale
	}
	return NormalizeLocale(r.Header.Get("Accept-Language"))
}

// NormalizeLocale returns the first language in the header we have
// translations for, falling back to DefaultLocale.
func NormalizeLocale(header string) string {
	for _, lang := range acceptedLanguages(header) {
		if _, ok := emailTranslations[lang]; ok {
			return lang
		}
	}
	return DefaultLocale
}

// acceptedLanguages reduces an Accept-Language header to base language tags
// in the order the client listed them. Quality weights are ignored; listing
// order is a good enough proxy for the handful of locales shipped here.
func acceptedLanguages(header string) []string {
	var langs []string
	for _, part := range strings.Split(header, ",") {
		lang := part
		if idx := strings.IndexByte(lang, ';'); idx >= 0 {
			lang = lang[:idx]
		}
		lang = strings.ToLower(strings.TrimSpace(lang))
		if idx := strings.IndexByte(lang, '-'); idx >= 0 {
			lang = lang[:idx]
		}
		if lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}
