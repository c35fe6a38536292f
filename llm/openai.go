package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures one OpenAI-compatible adapter. The same adapter
// serves api.openai.com, OpenRouter, and arbitrary self-hosted endpoints; only
// the base URL, credential, and extra headers differ.
type OpenAIConfig struct {
	// Provider is the identifier used in errors and logs, e.g. "openai",
	// "openrouter", "custom".
	Provider     string
	APIKey       string
	BaseURL      string
	ExtraHeaders map[string]string
	DefaultModel string
	Timeout      time.Duration
}

// OpenAIClient wraps go-openai for any chat-completions-compatible backend.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger zerolog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIClient {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// Self-hosted endpoints often require no key, but go-openai insists on
		// an Authorization header.
		apiKey = "dummy-key"
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{headers: cfg.ExtraHeaders},
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.With().Str("provider", cfg.Provider).Logger(),
	}
}

func (c *OpenAIClient) DefaultModel() string {
	if c.cfg.DefaultModel != "" {
		return c.cfg.DefaultModel
	}
	return "gpt-4o"
}

// BaseURL returns the configured endpoint, for the provider catalog.
func (c *OpenAIClient) BaseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return "https://api.openai.com/v1"
}

// Configured reports whether the adapter has enough configuration to be
// usable: a key for the hosted API, or any explicit base URL.
func (c *OpenAIClient) Configured() bool {
	return c.cfg.APIKey != "" || c.cfg.BaseURL != ""
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt, model string) (*GenerationResult, error) {
	if !c.Configured() {
		return nil, &BackendError{
			Provider: c.cfg.Provider,
			Message:  "API key or base URL must be set",
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	apiErr := &openai.APIError{}
	if errors.As(err, &apiErr) {
		return nil, &BackendError{
			Provider: c.cfg.Provider,
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
			Err:      err,
		}
	}
	if err != nil {
		return nil, &BackendError{
			Provider: c.cfg.Provider,
			Message:  fmt.Sprintf("request failed (base URL %s)", c.BaseURL()),
			Err:      err,
		}
	}
	if len(resp.Choices) == 0 {
		return nil, &BackendError{Provider: c.cfg.Provider, Message: "no choices returned"}
	}

	choice := resp.Choices[0]
	return &GenerationResult{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}

// ListModels fetches the endpoint's model catalog, sorted by id.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, &BackendError{Provider: c.cfg.Provider, Message: "error listing models", Err: err}
	}
	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	sort.Strings(models)
	return models, nil
}

// headerTransport injects caller-supplied headers into every request. This is
// what makes one adapter cover OpenRouter and custom endpoints.
type headerTransport struct {
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return http.DefaultTransport.RoundTrip(req)
}
