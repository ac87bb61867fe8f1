// Package vectorstore selects and constructs the vector store backend.
package vectorstore

import (
	"fmt"
	"time"

	"tickerai/internal/config"
	"tickerai/internal/domain"
	"tickerai/internal/vectorstore/memory"
	"tickerai/internal/vectorstore/qdrant"
)

// New builds the vector store named by the configuration.
func New(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("vector store type qdrant requires a qdrant section")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}
