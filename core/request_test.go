package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/prompts"
)

func TestValidateAcceptsBoundedPrompt(t *testing.T) {
	req := &GenerateRequest{Prompt: "a cube"}
	assert.Empty(t, req.Validate())

	req = &GenerateRequest{Prompt: strings.Repeat("x", 5000)}
	assert.Empty(t, req.Validate())
}

func TestValidateRejectsEmptyPrompt(t *testing.T) {
	req := &GenerateRequest{}
	issues := req.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "prompt", issues[0].Field)
}

func TestValidateRejectsOversizedPrompt(t *testing.T) {
	req := &GenerateRequest{Prompt: strings.Repeat("x", 5001)}
	issues := req.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "prompt", issues[0].Field)
	assert.Contains(t, issues[0].Message, "5000")
}

func TestValidateCountsRunesNotBytes(t *testing.T) {
	// 5000 two-byte runes is within the limit even though it is 10000 bytes.
	req := &GenerateRequest{Prompt: strings.Repeat("ü", 5000)}
	assert.Empty(t, req.Validate())

	req = &GenerateRequest{Prompt: strings.Repeat("ü", 5001)}
	require.Len(t, req.Validate(), 1)
}

func TestValidateDefaultsProvider(t *testing.T) {
	req := &GenerateRequest{Prompt: "a cube"}
	require.Empty(t, req.Validate())
	assert.Equal(t, llm.ProviderGemini, req.Provider)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	req := &GenerateRequest{Prompt: "a cube", Provider: "skynet"}
	issues := req.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "provider", issues[0].Field)
}

func TestValidateKnownProviders(t *testing.T) {
	for _, provider := range []string{"gemini", "ollama", "openai", "openrouter", "custom"} {
		req := &GenerateRequest{Prompt: "a cube", Provider: provider}
		assert.Empty(t, req.Validate(), "provider %s", provider)
	}
}

func TestValidateRejectsUnknownStyle(t *testing.T) {
	req := &GenerateRequest{Prompt: "a cube", Style: prompts.Style("Baroque")}
	issues := req.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, "style", issues[0].Field)
}
