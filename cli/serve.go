package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openpad/openpad/config"
	"github.com/openpad/openpad/core"
	"github.com/openpad/openpad/llm"
	"github.com/openpad/openpad/logger"
	"github.com/openpad/openpad/scad"
	"github.com/openpad/openpad/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OpenPAD HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.ListenAddr = listen
		}
		log := logger.Init(cfg.LogLevel)

		registry := llm.NewRegistry(registryConfig(cfg), log)
		compiler := scad.NewCompiler(cfg.OpenSCADBinary, cfg.MaxConcurrentCompiles, cfg.CompileTimeout, log)
		pipeline := core.NewPipeline(registry, compiler, cfg.GenerateTimeout, log)
		srv := server.New(cfg.ListenAddr, server.NewHandler(pipeline, registry, log), log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
}

// registryConfig maps the application config onto per-adapter settings. This
// is the only place provider wiring happens.
func registryConfig(cfg *config.Config) llm.RegistryConfig {
	return llm.RegistryConfig{
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.GenerateTimeout,
		},
		Ollama: llm.OllamaConfig{
			BaseURL: cfg.Ollama.BaseURL,
			APIKey:  cfg.Ollama.APIKey,
			Timeout: cfg.GenerateTimeout,
		},
		OpenAI: llm.OpenAIConfig{
			Provider: llm.ProviderOpenAI,
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Timeout:  cfg.GenerateTimeout,
		},
		OpenRouter: llm.OpenAIConfig{
			Provider:     llm.ProviderOpenRouter,
			APIKey:       cfg.OpenRouter.APIKey,
			BaseURL:      cfg.OpenRouter.BaseURL,
			ExtraHeaders: cfg.OpenRouter.ExtraHeaders,
			Timeout:      cfg.GenerateTimeout,
		},
		Custom: llm.OpenAIConfig{
			Provider:     llm.ProviderCustom,
			APIKey:       cfg.Custom.APIKey,
			BaseURL:      cfg.Custom.BaseURL,
			ExtraHeaders: cfg.Custom.ExtraHeaders,
			Timeout:      cfg.GenerateTimeout,
		},
		CustomName:    cfg.Custom.Name,
		CustomEnabled: cfg.Custom.Enabled,
	}
}
