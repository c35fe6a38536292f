package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/openpad/openpad/core"
	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/scad"
)

// PipelineService is the slice of the pipeline the handlers need.
type PipelineService interface {
	Generate(ctx context.Context, req *core.GenerateRequest) (*core.GenerateResult, error)
	Render(ctx context.Context, code string, format scad.Format) ([]byte, error)
	Filename(ctx context.Context, prompt string) (string, error)
}

// Catalog lists the configured backends.
type Catalog interface {
	Providers(ctx context.Context) []llm.ProviderInfo
}

// Handler carries the dependencies shared by all routes.
type Handler struct {
	pipeline PipelineService
	catalog  Catalog
	logger   zerolog.Logger
}

func NewHandler(pipeline PipelineService, catalog Catalog, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: pipeline, catalog: catalog, logger: logger}
}

type generateResponse struct {
	Code           string              `json:"code"`
	STL            string              `json:"stl"`
	GenerationInfo core.GenerationInfo `json:"generationInfo"`
}

// Generate handles POST /api/generate. The three failure classes map to three
// status classes: 400 for bad input, 422 when the generated program itself is
// invalid, 500 for everything else.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req core.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []core.FieldIssue{{Field: "body", Message: "malformed JSON"}})
		return
	}

	result, err := h.pipeline.Generate(r.Context(), &req)
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Issues)
			return
		}
		var compileErr *core.CompileFailure
		if errors.As(err, &compileErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "OpenSCAD failed to compile the generated code.",
				"code":    compileErr.Code,
				"stl":     nil,
				"details": compileErr.Diagnostic,
			})
			return
		}
		h.logger.Error().Err(err).Msg("generate request failed")
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Code:           result.Code,
		STL:            base64.StdEncoding.EncodeToString(result.Artifact),
		GenerationInfo: result.Info,
	})
}

type renderRequest struct {
	Code   string `json:"code"`
	Format string `json:"format,omitempty"`
}

// Render handles POST /api/render: compile caller-supplied source, no
// generation step.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []core.FieldIssue{{Field: "body", Message: "malformed JSON"}})
		return
	}

	format, err := scad.ParseFormat(req.Format)
	if err != nil {
		writeValidationError(w, []core.FieldIssue{{Field: "format", Message: err.Error()}})
		return
	}

	artifact, err := h.pipeline.Render(r.Context(), req.Code, format)
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Issues)
			return
		}
		var compileErr *core.CompileFailure
		if errors.As(err, &compileErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "OpenSCAD failed to compile the provided code.",
				"details": compileErr.Diagnostic,
			})
			return
		}
		h.logger.Error().Err(err).Msg("render request failed")
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"stl": base64.StdEncoding.EncodeToString(artifact),
	})
}

// Models handles GET /api/models.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": h.catalog.Providers(r.Context()),
	})
}

type filenameRequest struct {
	Prompt string `json:"prompt"`
}

// Filename handles POST /api/filename.
func (h *Handler) Filename(w http.ResponseWriter, r *http.Request) {
	var req filenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []core.FieldIssue{{Field: "body", Message: "malformed JSON"}})
		return
	}

	filename, err := h.pipeline.Filename(r.Context(), req.Prompt)
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Issues)
			return
		}
		h.logger.Error().Err(err).Msg("filename request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to generate filename from AI model",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"filename": filename})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeValidationError(w http.ResponseWriter, issues []core.FieldIssue) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Invalid request body",
		"details": issues,
	})
}

func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "An internal server error occurred.",
	})
}
