package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openpad/openpad/logger"
)

// Provider identifiers accepted in requests.
const (
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderCustom     = "custom"
)

// DefaultProvider is used when a request names no backend.
const DefaultProvider = ProviderGemini

var knownProviders = map[string]bool{
	ProviderGemini:     true,
	ProviderOllama:     true,
	ProviderOpenAI:     true,
	ProviderOpenRouter: true,
	ProviderCustom:     true,
}

// KnownProvider reports whether id names a registered backend. Request
// validation and the registry share this one set.
func KnownProvider(id string) bool {
	return knownProviders[id]
}

// catalogProbeTimeout bounds the per-backend wait when building the provider
// catalog, so an unreachable local daemon does not stall the listing.
const catalogProbeTimeout = 2 * time.Second

// RegistryConfig wires every adapter from explicit settings. Nothing below
// this point reads the environment.
type RegistryConfig struct {
	Gemini        GeminiConfig
	Ollama        OllamaConfig
	OpenAI        OpenAIConfig
	OpenRouter    OpenAIConfig
	Custom        OpenAIConfig
	CustomName    string
	CustomEnabled bool
}

// Registry owns one adapter per backend and answers both hot-path lookups
// (Client) and the out-of-band catalog query (Providers).
type Registry struct {
	cfg     RegistryConfig
	gemini  *GeminiClient
	ollama  *OllamaClient
	openai  *OpenAIClient
	router  *OpenAIClient
	custom  *OpenAIClient
	clients map[string]Client
	logger  zerolog.Logger
}

func NewRegistry(cfg RegistryConfig, log zerolog.Logger) *Registry {
	r := &Registry{
		cfg:    cfg,
		gemini: NewGeminiClient(cfg.Gemini, log),
		ollama: NewOllamaClient(cfg.Ollama, log),
		openai: NewOpenAIClient(cfg.OpenAI, log),
		router: NewOpenAIClient(cfg.OpenRouter, log),
		custom: NewOpenAIClient(cfg.Custom, log),
		logger: log,
	}
	r.clients = map[string]Client{
		ProviderGemini:     r.gemini,
		ProviderOllama:     r.ollama,
		ProviderOpenAI:     r.openai,
		ProviderOpenRouter: r.router,
		ProviderCustom:     r.custom,
	}

	log.Info().
		Str("gemini_key", logger.MaskKey(cfg.Gemini.APIKey)).
		Str("openai_key", logger.MaskKey(cfg.OpenAI.APIKey)).
		Str("openrouter_key", logger.MaskKey(cfg.OpenRouter.APIKey)).
		Str("custom_key", logger.MaskKey(cfg.Custom.APIKey)).
		Str("ollama_host", r.ollama.BaseURL()).
		Msg("provider backends configured")

	return r
}

// Client returns the adapter for id.
func (r *Registry) Client(id string) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", id)
	}
	return c, nil
}

// ProviderInfo describes one backend for the catalog endpoint.
type ProviderInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Models     []string          `json:"models"`
	Configured bool              `json:"configured"`
	BaseURL    string            `json:"baseUrl,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Providers builds the catalog. Backends that need a network probe get a short
// per-probe deadline; failures degrade to a fallback list, never an error.
func (r *Registry) Providers(ctx context.Context) []ProviderInfo {
	providers := []ProviderInfo{
		{
			ID:         ProviderGemini,
			Name:       "Google Gemini",
			Models:     GeminiModels(),
			Configured: r.cfg.Gemini.APIKey != "",
		},
		r.openaiInfo(ctx),
		r.ollamaInfo(ctx),
	}

	if r.cfg.OpenRouter.APIKey != "" {
		providers = append(providers, ProviderInfo{
			ID:         ProviderOpenRouter,
			Name:       "OpenRouter",
			Models:     openRouterModels(),
			Configured: true,
			BaseURL:    r.router.BaseURL(),
			Headers:    r.cfg.OpenRouter.ExtraHeaders,
		})
	}

	if r.cfg.CustomEnabled && r.cfg.Custom.BaseURL != "" {
		providers = append(providers, r.customInfo(ctx))
	}

	return providers
}

func (r *Registry) openaiInfo(ctx context.Context) ProviderInfo {
	info := ProviderInfo{
		ID:         ProviderOpenAI,
		Name:       "OpenAI",
		Models:     []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"},
		Configured: r.openai.Configured(),
		BaseURL:    r.openai.BaseURL(),
	}
	if !info.Configured {
		return info
	}

	probeCtx, cancel := context.WithTimeout(ctx, catalogProbeTimeout)
	defer cancel()
	models, err := r.openai.ListModels(probeCtx)
	if err != nil {
		r.logger.Warn().Err(err).Str("base_url", info.BaseURL).Msg("failed to fetch OpenAI models, using fallback")
		return info
	}
	if len(models) > 0 {
		info.Models = models
	}
	return info
}

func (r *Registry) ollamaInfo(ctx context.Context) ProviderInfo {
	info := ProviderInfo{
		ID:      ProviderOllama,
		Name:    "Ollama (Local)",
		Models:  []string{},
		BaseURL: r.ollama.BaseURL(),
	}

	probeCtx, cancel := context.WithTimeout(ctx, catalogProbeTimeout)
	defer cancel()
	models, err := r.ollama.ListModels(probeCtx)
	if err != nil {
		r.logger.Info().Err(err).Str("host", info.BaseURL).Msg("ollama not reachable, skipping")
		return info
	}
	info.Models = models
	info.Configured = true
	return info
}

func (r *Registry) customInfo(ctx context.Context) ProviderInfo {
	name := r.cfg.CustomName
	if name == "" {
		name = "Custom Provider"
	}
	info := ProviderInfo{
		ID:         ProviderCustom,
		Name:       name,
		Models:     []string{"custom-model"},
		Configured: true,
		BaseURL:    r.cfg.Custom.BaseURL,
	}

	probeCtx, cancel := context.WithTimeout(ctx, catalogProbeTimeout)
	defer cancel()
	models, err := r.custom.ListModels(probeCtx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to fetch custom provider models")
		return info
	}
	if len(models) > 15 {
		models = models[:15]
	}
	if len(models) > 0 {
		info.Models = models
	}
	return info
}

func openRouterModels() []string {
	return []string{
		"openrouter/anthropic/claude-3.5-sonnet",
		"openrouter/google/gemini-2.0-flash-001",
		"openrouter/google/gemini-pro-1.5",
		"openrouter/meta-llama/llama-3.1-70b-instruct",
		"openrouter/mistralai/mistral-7b-instruct",
		"openrouter/openai/gpt-4o",
		"openrouter/openai/gpt-4o-mini",
		"openrouter/deepseek/deepseek-chat",
	}
}
