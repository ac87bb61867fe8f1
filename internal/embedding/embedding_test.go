package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerai/internal/config"
	"tickerai/internal/domain"
)

func TestNewOllamaEmbedder(t *testing.T) {
	e, err := New(config.EmbeddingConfig{
		Provider:    "ollama",
		Model:       "nomic-embed-text",
		Host:        "http://localhost:11434",
		TimeoutSecs: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama/nomic-embed-text", e.Name())
}

func TestNewUnknownEmbedder(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "cohere"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
