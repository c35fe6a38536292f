package core

import (
	"fmt"
	"unicode/utf8"

	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/prompts"
)

// GenerateRequest is one inbound generation request.
type GenerateRequest struct {
	Prompt     string        `json:"prompt"`
	Provider   string        `json:"provider,omitempty"`
	Model      string        `json:"model,omitempty"`
	Style      prompts.Style `json:"style,omitempty"`
	Attachment string        `json:"attachment,omitempty"`
}

// FieldIssue is one field-level validation problem.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	maxPromptLen         = 5000
	maxFilenamePromptLen = 1000
)

// Validate checks the request shape and applies the provider default. It runs
// before any side effect; a non-empty result aborts the request.
func (r *GenerateRequest) Validate() []FieldIssue {
	var issues []FieldIssue

	if r.Prompt == "" {
		issues = append(issues, FieldIssue{Field: "prompt", Message: "must not be empty"})
	} else if utf8.RuneCountInString(r.Prompt) > maxPromptLen {
		issues = append(issues, FieldIssue{
			Field:   "prompt",
			Message: fmt.Sprintf("must be at most %d characters", maxPromptLen),
		})
	}

	if r.Provider == "" {
		r.Provider = llm.DefaultProvider
	}
	if !llm.KnownProvider(r.Provider) {
		issues = append(issues, FieldIssue{
			Field:   "provider",
			Message: fmt.Sprintf("unknown provider %q", r.Provider),
		})
	}

	if !r.Style.Valid() {
		issues = append(issues, FieldIssue{
			Field:   "style",
			Message: fmt.Sprintf("unknown style %q", r.Style),
		})
	}

	return issues
}
