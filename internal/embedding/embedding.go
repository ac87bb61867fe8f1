// Package embedding selects and constructs the embedding backend.
package embedding

import (
	"fmt"
	"time"

	"tickerai/internal/config"
	"tickerai/internal/domain"
	"tickerai/internal/embedding/ollama"
	"tickerai/internal/embedding/openai"
)

// New builds the embedder named by the configuration. An unrecognised
// provider identity fails here, at startup, not on first use.
func New(cfg config.EmbeddingConfig) (domain.Embedder, error) {
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
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}
