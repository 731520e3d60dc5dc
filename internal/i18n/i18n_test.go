package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"english", "en", LocaleEN},
		{"english variant", "EN-US", LocaleEN},
		{"swahili", "sw", LocaleSW},
		{"swahili name", "Kiswahili", LocaleSW},
		{"with whitespace", "  sw  ", LocaleSW},
		{"unknown falls back", "fr", LocaleEN},
		{"empty falls back", "", LocaleEN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(LocaleEN))
	assert.True(t, Supported(LocaleSW))
	assert.False(t, Supported("fr"))
	assert.False(t, Supported(""))
}

func TestT_TranslatesPerLocale(t *testing.T) {
	en := T(LocaleEN, "chat.greeting")
	sw := T(LocaleSW, "chat.greeting")

	assert.NotEmpty(t, en)
	assert.NotEmpty(t, sw)
	assert.NotEqual(t, en, sw)
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "no.such.key", T(LocaleEN, "no.such.key"))
}

func TestT_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, T(LocaleEN, "chat.greeting"), T("de", "chat.greeting"))
}

func TestSprintf(t *testing.T) {
	got := Sprintf(LocaleEN, "lang.unsupported", "fr")
	assert.Contains(t, got, "fr")
}

func TestEveryKeyHasBothTranslations(t *testing.T) {
	for key := range englishMessages {
		_, ok := swahiliMessages[key]
		assert.True(t, ok, "missing Kiswahili translation for %q", key)
	}
	for key := range swahiliMessages {
		_, ok := englishMessages[key]
		assert.True(t, ok, "missing English translation for %q", key)
	}
}
