package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/vinnieai/vinnie/internal/i18n"
)

func TestInstruction_LocaleSuffix(t *testing.T) {
	en := Instruction(i18n.LocaleEN)
	sw := Instruction(i18n.LocaleSW)

	assert.Contains(t, en, "standard English")
	assert.NotContains(t, en, "SWAHILI")
	assert.Contains(t, sw, "SWAHILI")

	// Same base persona in both.
	assert.True(t, strings.HasPrefix(en, basePersona))
	assert.True(t, strings.HasPrefix(sw, basePersona))
}

func TestInstruction_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, Instruction(i18n.LocaleEN), Instruction("fr"))
	assert.Equal(t, Instruction(i18n.LocaleEN), Instruction(""))
}

func TestInstruction_Pure(t *testing.T) {
	assert.Equal(t, Instruction(i18n.LocaleSW), Instruction(i18n.LocaleSW))
}

func TestSafetySettings(t *testing.T) {
	settings := SafetySettings()
	assert.Len(t, settings, 2)

	categories := make(map[genai.HarmCategory]genai.HarmBlockThreshold)
	for _, s := range settings {
		categories[s.Category] = s.Threshold
	}

	assert.Equal(t, genai.HarmBlockThresholdBlockOnlyHigh, categories[genai.HarmCategoryHateSpeech])
	assert.Equal(t, genai.HarmBlockThresholdBlockOnlyHigh, categories[genai.HarmCategoryHarassment])
}
