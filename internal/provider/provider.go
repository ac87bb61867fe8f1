// Package provider selects and constructs the text-generation backend.
// Adding a backend means adding a case here; callers only ever see the
// Provider interface.
package provider

import (
	"fmt"
	"time"

	"tickerai/internal/config"
	"tickerai/internal/domain"
	"tickerai/internal/provider/ollama"
	"tickerai/internal/provider/openai"
)

// New builds the generation provider named by the configuration. An
// unrecognised provider identity fails here, at startup, not mid-query.
func New(cfg config.LLMConfig) (domain.Provider, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	switch cfg.Provider {
	case "ollama":
		return ollama.NewClient(ollama.Config{
			Host:    cfg.Host,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.Host,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   timeout,
		})
	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}
