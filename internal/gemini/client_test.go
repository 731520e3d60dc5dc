package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/vinnieai/vinnie/internal/history"
)

func TestHistoryContents(t *testing.T) {
	turns := []history.Turn{
		{Role: history.RoleUser, Content: "hi"},
		{Role: history.RoleModel, Content: "hello! 👍"},
		{Role: history.RoleUser, Content: "tell me more"},
	}

	contents := historyContents(turns)
	require.Len(t, contents, 3)

	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)

	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, "hello! 👍", contents[1].Parts[0].Text)
}

func TestHistoryContents_Empty(t *testing.T) {
	assert.Empty(t, historyContents(nil))
}
