// Package core runs the generation-to-artifact pipeline: validate, assemble
// the prompt, call the selected backend, extract code, compile. Each request
// owns its state; the only cross-request coupling is the compile slot limit
// inside the compiler.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/prompts"
	"github.com/openpad/openpad/scad"
)

// ClientResolver maps a provider id to its adapter.
type ClientResolver interface {
	Client(id string) (llm.Client, error)
}

// Compiler turns source into an artifact. Satisfied by *scad.Compiler.
type Compiler interface {
	Compile(ctx context.Context, source string, format scad.Format) ([]byte, error)
}

// GenerationInfo is backend metadata returned with a successful generation.
type GenerationInfo struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	FinishReason  string `json:"finishReason,omitempty"`
	SafetyRatings any    `json:"safetyRatings,omitempty"`
}

// GenerateResult is the successful outcome of a full pipeline run.
type GenerateResult struct {
	Code     string
	Artifact []byte
	Info     GenerationInfo
}

// ValidationError aborts a request before any side effect.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// CompileFailure means the backend produced code the compiler rejected. It is
// a normal, fully handled termination: the offending source and the
// compiler's diagnostic travel back to the caller.
type CompileFailure struct {
	Code       string
	Diagnostic string
}

func (e *CompileFailure) Error() string {
	return "compile failed: " + e.Diagnostic
}

// Pipeline coordinates one request from description to artifact.
type Pipeline struct {
	resolver   ClientResolver
	compiler   Compiler
	genTimeout time.Duration
	logger     zerolog.Logger
}

func NewPipeline(resolver ClientResolver, compiler Compiler, genTimeout time.Duration, logger zerolog.Logger) *Pipeline {
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	return &Pipeline{
		resolver:   resolver,
		compiler:   compiler,
		genTimeout: genTimeout,
		logger:     logger,
	}
}

// Generate runs the full pipeline. The error is one of:
//   - *ValidationError: malformed input, nothing happened;
//   - *CompileFailure: generation worked, the generated program did not;
//   - anything else: internal failure (backend error included) — callers show
//     a generic message and the detail stays in the server log.
func (p *Pipeline) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if issues := req.Validate(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	client, err := p.resolver.Client(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolving provider: %w", err)
	}
	model := req.Model
	if model == "" {
		model = client.DefaultModel()
	}

	log := p.logger.With().
		Str("provider", req.Provider).
		Str("model", model).
		Str("style", string(req.Style)).
		Bool("has_attachment", req.Attachment != "").
		Logger()
	log.Info().Msg("generating code")

	prompt := prompts.Assemble(req.Style, req.Attachment, req.Prompt)

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()
	generated, err := client.Generate(genCtx, prompt, model)
	if err != nil {
		log.Error().Err(err).Msg("backend call failed")
		return nil, fmt.Errorf("code generation failed: %w", err)
	}

	code := Extract(generated.Text)
	log.Debug().Int("code_len", len(code)).Str("finish_reason", generated.FinishReason).Msg("extracted code")

	artifact, err := p.compiler.Compile(ctx, code, scad.FormatSTL)
	if err != nil {
		var compileErr *scad.CompileError
		if errors.As(err, &compileErr) {
			log.Warn().Str("diagnostic", compileErr.Diagnostic).Msg("generated code did not compile")
			return nil, &CompileFailure{Code: code, Diagnostic: compileErr.Diagnostic}
		}
		log.Error().Err(err).Msg("compile orchestration failed")
		return nil, err
	}

	return &GenerateResult{
		Code:     code,
		Artifact: artifact,
		Info: GenerationInfo{
			Provider:      req.Provider,
			Model:         model,
			FinishReason:  generated.FinishReason,
			SafetyRatings: generated.SafetyRatings,
		},
	}, nil
}

// Render skips generation and compiles caller-supplied source directly.
func (p *Pipeline) Render(ctx context.Context, code string, format scad.Format) ([]byte, error) {
	if code == "" {
		return nil, &ValidationError{Issues: []FieldIssue{{Field: "code", Message: "must not be empty"}}}
	}

	artifact, err := p.compiler.Compile(ctx, code, format)
	if err != nil {
		var compileErr *scad.CompileError
		if errors.As(err, &compileErr) {
			return nil, &CompileFailure{Code: code, Diagnostic: compileErr.Diagnostic}
		}
		return nil, err
	}
	return artifact, nil
}

const filenameInstruction = `Based on the following user request, create a short, descriptive, file-safe name for an STL file.

**IMPORTANT RULES:**
1.  Your entire response MUST be only the filename.
2.  The filename must end with ".stl".
3.  Use underscores instead of spaces.
4.  Do not include any other text, explanations, or markdown.

**User Request:** %q

**Example Response:** "20mm_cube_with_hole.stl"
`

// Filename asks the Gemini backend for a file-safe STL name describing the
// request. It is a convenience collaborator, not part of the hot path.
func (p *Pipeline) Filename(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", &ValidationError{Issues: []FieldIssue{{Field: "prompt", Message: "must not be empty"}}}
	}
	if utf8.RuneCountInString(prompt) > maxFilenamePromptLen {
		return "", &ValidationError{Issues: []FieldIssue{{
			Field:   "prompt",
			Message: fmt.Sprintf("must be at most %d characters", maxFilenamePromptLen),
		}}}
	}

	client, err := p.resolver.Client(llm.ProviderGemini)
	if err != nil {
		return "", fmt.Errorf("resolving provider: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()
	result, err := client.Generate(genCtx, fmt.Sprintf(filenameInstruction, prompt), "gemini-2.5-flash-lite")
	if err != nil {
		return "", fmt.Errorf("filename generation failed: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
