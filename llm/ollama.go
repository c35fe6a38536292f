package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaConfig configures the Ollama adapter. APIKey is optional; when set it
// is sent as a Bearer token so remote Ollama-compatible hosts work too.
type OllamaConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// OllamaClient calls the Ollama REST API. Endpoints used:
//   - POST /api/generate — non-streaming single-prompt completion
//   - GET  /api/tags     — model listing
type OllamaClient struct {
	cfg        OllamaConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewOllamaClient(cfg OllamaConfig, logger zerolog.Logger) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("provider", "ollama").Logger(),
	}
}

func (c *OllamaClient) DefaultModel() string { return "codellama" }

// BaseURL returns the configured host, for the provider catalog.
func (c *OllamaClient) BaseURL() string { return c.cfg.BaseURL }

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response   string `json:"response"`
	DoneReason string `json:"done_reason"`
	Done       bool   `json:"done"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt, model string) (*GenerationResult, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error marshaling request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error creating request", Err: err}
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{
			Provider: "ollama",
			Message:  fmt.Sprintf("error sending request (host %s)", c.cfg.BaseURL),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error reading response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{
			Provider: "ollama",
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	var ollamaResp ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error unmarshaling response", Err: err}
	}

	return &GenerationResult{
		Text:         ollamaResp.Response,
		FinishReason: ollamaResp.DoneReason,
	}, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries GET /api/tags. Callers bound the wait through ctx; a
// local daemon that is down should fail fast, not stall the catalog.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error creating request", Err: err}
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error listing models", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Provider: "ollama", Status: resp.StatusCode, Message: "error listing models"}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &BackendError{Provider: "ollama", Message: "error decoding model list", Err: err}
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (c *OllamaClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
