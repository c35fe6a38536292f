package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Provider holds the credential and endpoint settings for one generation
// backend. Adapters receive these by value at construction time; nothing in
// the request path reads the environment.
type Provider struct {
	APIKey       string            `mapstructure:"api_key"`
	BaseURL      string            `mapstructure:"base_url"`
	ExtraHeaders map[string]string `mapstructure:"extra_headers"`
	Name         string            `mapstructure:"name"`
	Enabled      bool              `mapstructure:"enabled"`
}

// Config is the full runtime configuration, built once at process start.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	Gemini     Provider `mapstructure:"gemini"`
	Ollama     Provider `mapstructure:"ollama"`
	OpenAI     Provider `mapstructure:"openai"`
	OpenRouter Provider `mapstructure:"openrouter"`
	Custom     Provider `mapstructure:"custom"`

	OpenSCADBinary        string        `mapstructure:"openscad_binary"`
	CompileTimeout        time.Duration `mapstructure:"compile_timeout"`
	GenerateTimeout       time.Duration `mapstructure:"generate_timeout"`
	MaxConcurrentCompiles int64         `mapstructure:"max_concurrent_compiles"`
}

// Load reads configuration from an optional file plus environment variables.
// Every field has a default so the binary runs with no setup at all.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("openscad_binary", "openscad")
	v.SetDefault("compile_timeout", time.Minute)
	v.SetDefault("generate_timeout", 2*time.Minute)
	v.SetDefault("max_concurrent_compiles", 4)
	v.SetDefault("ollama.base_url", "http://127.0.0.1:11434")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.name", "OpenRouter")
	v.SetDefault("openrouter.referer", "http://localhost:5173")
	v.SetDefault("openrouter.title", "OpenPAD")
	v.SetDefault("custom.name", "Custom Provider")

	bindings := map[string]string{
		"listen_addr":        "OPENPAD_LISTEN_ADDR",
		"log_level":          "OPENPAD_LOG_LEVEL",
		"openscad_binary":    "OPENSCAD_BINARY",
		"gemini.api_key":     "GEMINI_API_KEY",
		"ollama.base_url":    "OLLAMA_HOST",
		"ollama.api_key":     "OLLAMA_API_KEY",
		"openai.api_key":     "OPENAI_API_KEY",
		"openai.base_url":    "OPENAI_BASE_URL",
		"openrouter.api_key": "OPENROUTER_API_KEY",
		"openrouter.referer": "OPENROUTER_REFERER",
		"openrouter.title":   "OPENROUTER_TITLE",
		"custom.api_key":     "CUSTOM_PROVIDER_API_KEY",
		"custom.base_url":    "CUSTOM_PROVIDER_BASE_URL",
		"custom.name":        "CUSTOM_PROVIDER_NAME",
		"custom.enabled":     "CUSTOM_PROVIDER_ENABLED",
		"custom.headers":     "CUSTOM_PROVIDER_HEADERS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// OpenRouter attribution headers ride along on every request; an explicit
	// extra_headers map in the config file takes precedence.
	if len(cfg.OpenRouter.ExtraHeaders) == 0 {
		cfg.OpenRouter.ExtraHeaders = map[string]string{
			"HTTP-Referer": v.GetString("openrouter.referer"),
			"X-Title":      v.GetString("openrouter.title"),
		}
	}

	// Custom-endpoint headers arrive as a JSON object in CUSTOM_PROVIDER_HEADERS.
	// A value that fails to parse is ignored, leaving the map empty.
	if len(cfg.Custom.ExtraHeaders) == 0 {
		if raw := v.GetString("custom.headers"); raw != "" {
			var headers map[string]string
			if err := json.Unmarshal([]byte(raw), &headers); err == nil {
				cfg.Custom.ExtraHeaders = headers
			}
		}
	}
	return cfg, nil
}
