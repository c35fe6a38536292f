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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient calls the Gemini generateContent API over plain HTTP.
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewGeminiClient(cfg GeminiConfig, logger zerolog.Logger) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("provider", "gemini").Logger(),
	}
}

func (c *GeminiClient) DefaultModel() string { return "gemini-2.5-flash" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content       geminiContent `json:"content"`
	FinishReason  string        `json:"finishReason,omitempty"`
	SafetyRatings []any         `json:"safetyRatings,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Generate(ctx context.Context, prompt, model string) (*GenerationResult, error) {
	if c.cfg.APIKey == "" {
		return nil, &BackendError{Provider: "gemini", Message: "GEMINI_API_KEY is not set"}
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, &BackendError{Provider: "gemini", Message: "error marshaling request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Provider: "gemini", Message: "error creating request", Err: err}
	}
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "gemini", Message: "error sending request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Provider: "gemini", Message: "error reading response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiErrorResponse
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, &BackendError{Provider: "gemini", Status: resp.StatusCode, Message: msg}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, &BackendError{Provider: "gemini", Message: "error unmarshaling response", Err: err}
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, &BackendError{Provider: "gemini", Message: "no candidates returned"}
	}

	candidate := geminiResp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	result := &GenerationResult{
		Text:         text.String(),
		FinishReason: candidate.FinishReason,
	}
	if len(candidate.SafetyRatings) > 0 {
		result.SafetyRatings = candidate.SafetyRatings
	}
	return result, nil
}

// GeminiModels is the static catalog offered by the Gemini backend.
func GeminiModels() []string {
	return []string{
		"gemini-2.5-flash-lite",
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-3-pro-preview",
		"gemini-3-flash-preview",
	}
}
