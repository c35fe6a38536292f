package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/scad"
)

// MockClient is a mock generation backend.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Generate(ctx context.Context, prompt, model string) (*llm.GenerationResult, error) {
	args := m.Called(ctx, prompt, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.GenerationResult), args.Error(1)
}

func (m *MockClient) DefaultModel() string {
	return "test-model"
}

// MockCompiler is a mock compile orchestrator.
type MockCompiler struct {
	mock.Mock
}

func (m *MockCompiler) Compile(ctx context.Context, source string, format scad.Format) ([]byte, error) {
	args := m.Called(ctx, source, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type stubResolver struct {
	client llm.Client
	err    error
}

func (s *stubResolver) Client(id string) (llm.Client, error) {
	return s.client, s.err
}

func newTestPipeline(client llm.Client, compiler Compiler) *Pipeline {
	return NewPipeline(&stubResolver{client: client}, compiler, time.Minute, zerolog.Nop())
}

func TestGenerateSuccess(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	client.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, `**User Request:** "A 20mm cube"`)
	}), "test-model").Return(&llm.GenerationResult{Text: "cube(20);", FinishReason: "STOP"}, nil)
	compiler.On("Compile", mock.Anything, "cube(20);", scad.FormatSTL).Return([]byte("solid model"), nil)

	pipeline := newTestPipeline(client, compiler)
	result, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: "A 20mm cube"})

	require.NoError(t, err)
	assert.Equal(t, "cube(20);", result.Code)
	assert.Equal(t, []byte("solid model"), result.Artifact)
	assert.Equal(t, "gemini", result.Info.Provider)
	assert.Equal(t, "test-model", result.Info.Model)
	assert.Equal(t, "STOP", result.Info.FinishReason)
	client.AssertExpectations(t)
	compiler.AssertExpectations(t)
}

func TestGenerateUnwrapsFencedOutput(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	client.On("Generate", mock.Anything, mock.Anything, "test-model").
		Return(&llm.GenerationResult{Text: "```openscad\nsphere(5);\n```", FinishReason: "STOP"}, nil)
	compiler.On("Compile", mock.Anything, "sphere(5);", scad.FormatSTL).Return([]byte{0x1}, nil)

	pipeline := newTestPipeline(client, compiler)
	result, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: "a sphere"})

	require.NoError(t, err)
	assert.Equal(t, "sphere(5);", result.Code)
	compiler.AssertExpectations(t)
}

func TestGenerateExplicitModelWins(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	client.On("Generate", mock.Anything, mock.Anything, "gemini-2.5-pro").
		Return(&llm.GenerationResult{Text: "cube(1);"}, nil)
	compiler.On("Compile", mock.Anything, "cube(1);", scad.FormatSTL).Return([]byte{0x1}, nil)

	pipeline := newTestPipeline(client, compiler)
	_, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: "a cube", Model: "gemini-2.5-pro"})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestGenerateCompileFailure(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	client.On("Generate", mock.Anything, mock.Anything, "test-model").
		Return(&llm.GenerationResult{Text: "cube(20);"}, nil)
	compiler.On("Compile", mock.Anything, "cube(20);", scad.FormatSTL).
		Return(nil, &scad.CompileError{Diagnostic: "syntax error"})

	pipeline := newTestPipeline(client, compiler)
	result, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: "A 20mm cube"})

	require.Nil(t, result)
	var compileErr *CompileFailure
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "cube(20);", compileErr.Code)
	assert.Contains(t, compileErr.Diagnostic, "syntax error")
}

func TestGenerateBackendFailure(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	client.On("Generate", mock.Anything, mock.Anything, "test-model").
		Return(nil, &llm.BackendError{Provider: "gemini", Message: "GEMINI_API_KEY is not set"})

	pipeline := newTestPipeline(client, compiler)
	result, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: "A 20mm cube"})

	require.Nil(t, result)
	require.Error(t, err)

	// Backend failures are internal failures, not compile or validation ones.
	var compileErr *CompileFailure
	assert.False(t, errors.As(err, &compileErr))
	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))

	// Generation never happened, so no compile and no workspace.
	compiler.AssertNotCalled(t, "Compile", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateValidationFailureHasNoSideEffects(t *testing.T) {
	client := new(MockClient)
	compiler := new(MockCompiler)

	pipeline := newTestPipeline(client, compiler)
	result, err := pipeline.Generate(context.Background(), &GenerateRequest{Prompt: ""})

	require.Nil(t, result)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, "prompt", validationErr.Issues[0].Field)

	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	compiler.AssertNotCalled(t, "Compile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderSuccess(t *testing.T) {
	compiler := new(MockCompiler)
	compiler.On("Compile", mock.Anything, "cube(3);", scad.Format3MF).Return([]byte{0x2}, nil)

	pipeline := newTestPipeline(nil, compiler)
	artifact, err := pipeline.Render(context.Background(), "cube(3);", scad.Format3MF)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x2}, artifact)
}

func TestRenderEmptyCode(t *testing.T) {
	compiler := new(MockCompiler)
	pipeline := newTestPipeline(nil, compiler)

	_, err := pipeline.Render(context.Background(), "", scad.FormatSTL)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	compiler.AssertNotCalled(t, "Compile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderCompileFailure(t *testing.T) {
	compiler := new(MockCompiler)
	compiler.On("Compile", mock.Anything, "nonsense", scad.FormatSTL).
		Return(nil, &scad.CompileError{Diagnostic: "unexpected token"})

	pipeline := newTestPipeline(nil, compiler)
	_, err := pipeline.Render(context.Background(), "nonsense", scad.FormatSTL)

	var compileErr *CompileFailure
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Diagnostic, "unexpected token")
}

func TestFilename(t *testing.T) {
	client := new(MockClient)
	client.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "a 20mm cube")
	}), "gemini-2.5-flash-lite").Return(&llm.GenerationResult{Text: "  20mm_cube.stl\n"}, nil)

	pipeline := newTestPipeline(client, new(MockCompiler))
	filename, err := pipeline.Filename(context.Background(), "a 20mm cube")

	require.NoError(t, err)
	assert.Equal(t, "20mm_cube.stl", filename)
}

func TestFilenamePromptLimitCountsRunes(t *testing.T) {
	client := new(MockClient)
	client.On("Generate", mock.Anything, mock.Anything, "gemini-2.5-flash-lite").
		Return(&llm.GenerationResult{Text: "model.stl"}, nil)

	pipeline := newTestPipeline(client, new(MockCompiler))
	_, err := pipeline.Filename(context.Background(), strings.Repeat("ü", 1000))
	require.NoError(t, err)
}

func TestFilenameValidation(t *testing.T) {
	pipeline := newTestPipeline(new(MockClient), new(MockCompiler))

	var validationErr *ValidationError
	_, err := pipeline.Filename(context.Background(), "")
	require.ErrorAs(t, err, &validationErr)

	_, err = pipeline.Filename(context.Background(), strings.Repeat("x", 1001))
	require.ErrorAs(t, err, &validationErr)
}
