// Package i18n provides the localized user-facing strings for the gateway.
//
// The locale is request-scoped (selected per caller, carried in a cookie),
// so every lookup takes the locale explicitly rather than consulting a
// process-wide setting.
package i18n

import (
	"fmt"
	"strings"
)

// Supported locales.
const (
	LocaleEN = "en"
	LocaleSW = "sw"
)

// DefaultLocale is used when the caller has not selected a locale or the
// selected one is unknown.
const DefaultLocale = LocaleEN

// messages stores all translations, keyed by locale then message key.
var messages = map[string]map[string]string{
	LocaleEN: englishMessages,
	LocaleSW: swahiliMessages,
}

// Normalize maps a raw locale string to a supported locale code.
// Unknown values fall back to DefaultLocale.
func Normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	switch locale {
	case LocaleEN, "en-us", "en-gb", "english":
		return LocaleEN
	case LocaleSW, "sw-ke", "sw-tz", "swahili", "kiswahili":
		return LocaleSW
	default:
		return DefaultLocale
	}
}

// Supported reports whether locale is a supported locale code.
func Supported(locale string) bool {
	_, ok := messages[locale]
	return ok
}

// T returns the translated message for key in the given locale.
// Falls back to English, then to the key itself.
func T(locale, key string) string {
	if msg, ok := messages[Normalize(locale)][key]; ok {
		return msg
	}
	if msg, ok := messages[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf returns the translated and formatted message.
func Sprintf(locale, key string, args ...any) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// Locales returns the supported locale codes.
func Locales() []string {
	return []string{LocaleEN, LocaleSW}
}
