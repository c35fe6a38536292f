package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleDefault(t *testing.T) {
	prompt := Assemble(StyleDefault, "", "a 20mm cube")

	assert.True(t, strings.HasPrefix(prompt, basePrompt))
	assert.NotContains(t, prompt, modularPrompt)
	assert.NotContains(t, prompt, attachmentIntro)
	assert.Contains(t, prompt, `**User Request:** "a 20mm cube"`)
}

func TestAssembleModular(t *testing.T) {
	prompt := Assemble(StyleModular, "", "a gear")

	base := strings.Index(prompt, basePrompt)
	modular := strings.Index(prompt, modularPrompt)
	request := strings.Index(prompt, "**User Request:**")
	require.NotEqual(t, -1, modular)

	// Addendum sits between the preamble and the user-request block.
	assert.Equal(t, len(basePrompt), modular)
	assert.Less(t, base, modular)
	assert.Less(t, modular, request)
}

func TestAssembleEmptyStyleMeansDefault(t *testing.T) {
	assert.Equal(t, Assemble(StyleDefault, "", "x"), Assemble("", "", "x"))
}

func TestAssembleAttachment(t *testing.T) {
	attachment := "module helper() { cube(1); }"
	prompt := Assemble(StyleDefault, attachment, "reuse the helper")

	intro := strings.Index(prompt, attachmentIntro)
	content := strings.Index(prompt, attachment)
	outro := strings.Index(prompt, attachmentOutro)
	request := strings.Index(prompt, "**User Request:**")

	require.NotEqual(t, -1, intro)
	require.NotEqual(t, -1, outro)
	assert.Less(t, intro, content)
	assert.Less(t, content, outro)
	assert.Less(t, outro, request)
}

func TestAssembleUserTextVerbatim(t *testing.T) {
	// No escaping is applied; the backend treats the text as natural language.
	userText := `a "mug" with 50% infill & <weird> chars`
	prompt := Assemble(StyleDefault, "", userText)
	assert.Contains(t, prompt, userText)
}

func TestStyleValid(t *testing.T) {
	assert.True(t, Style("").Valid())
	assert.True(t, StyleDefault.Valid())
	assert.True(t, StyleModular.Valid())
	assert.False(t, Style("Fancy").Valid())
}
