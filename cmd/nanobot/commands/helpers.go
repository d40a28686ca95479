package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/agent"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/logging"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/memory"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/provider"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/session"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/tool"
)

// loadConfig loads and prepares configuration plus the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.EnsureDirs(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to prepare directories: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkspaceDir(), 0755); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to create workspace: %w", err)
	}
	return cfg, logging.New(cfg), nil
}

// buildProvider assembles the fallback chain: Groq first, Anthropic second.
func buildProvider(cfg *config.Config, log zerolog.Logger) (provider.Provider, error) {
	if err := cfg.ValidateProviders(); err != nil {
		return nil, err
	}

	var backends []provider.Provider

	if cfg.Providers.Groq.APIKey != "" {
		groq, err := provider.NewGroq(provider.GroqConfig{
			APIKey:  cfg.Providers.Groq.APIKey,
			BaseURL: cfg.Providers.Groq.BaseURL,
			Model:   cfg.Providers.Groq.Model,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, groq)
	}

	if cfg.Providers.Anthropic.APIKey != "" {
		anthropic, err := provider.NewAnthropic(provider.AnthropicConfig{
			APIKey:  cfg.Providers.Anthropic.APIKey,
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Model:   cfg.Providers.Anthropic.Model,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, anthropic)
	}

	return provider.NewFallback(log, backends...), nil
}

// buildLoop wires the agent loop with its store, tools and memory.
func buildLoop(cfg *config.Config, log zerolog.Logger) (*agent.Loop, *session.Store, *memory.FileMemory, error) {
	prov, err := buildProvider(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	store := session.NewStore(config.SessionsDir())
	mem := memory.NewFileMemory(cfg.WorkspaceDir())
	registry := tool.NewDefaultRegistry(cfg.WorkspaceDir(), cfg.AllowedBases())

	loop := agent.New(agent.Config{
		Provider:    prov,
		Tools:       registry,
		Store:       store,
		Memory:      mem,
		Logger:      log,
		MaxTokens:   cfg.Providers.MaxTokens,
		Temperature: cfg.Providers.Temperature,
	})
	return loop, store, mem, nil
}
