package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Host)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)

	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "qdrant", cfg.VectorStore.Type)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "stock_documents", cfg.VectorStore.Qdrant.Collection)

	assert.Equal(t, 1000, cfg.Knowledge.ChunkSize)
	assert.Equal(t, 200, cfg.Knowledge.ChunkOverlap)
	assert.Equal(t, 5, cfg.Knowledge.TopK)
	assert.Equal(t, 4000, cfg.Knowledge.MaxContextChars)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickerai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
  host: https://api.openai.com/v1
  api_key_env: OPENAI_API_KEY
  temperature: 0.2
knowledge:
  dir: ./docs
  chunk_size: 500
  chunk_overlap: 100
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, "./docs", cfg.Knowledge.Dir)
	assert.Equal(t, 500, cfg.Knowledge.ChunkSize)
	// Settings the file omits keep their defaults.
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickerai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: llama3.2\n"), 0o644))

	t.Setenv("LLM_MODEL", "mistral")
	t.Setenv("QDRANT_URL", "http://qdrant.internal:6333")
	t.Setenv("TOP_K_RESULTS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, "http://qdrant.internal:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, 8, cfg.Knowledge.TopK)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickerai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: anthropic\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM.Provider")
}

func TestValidateRejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickerai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("knowledge:\n  chunk_size: 100\n  chunk_overlap: 100\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Knowledge.Dir = "/srv/knowledge"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/knowledge", loaded.Knowledge.Dir)
	assert.Equal(t, cfg.LLM, loaded.LLM)
}
