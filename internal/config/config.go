package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=ollama openai"`
	Model       string  `yaml:"model" validate:"required"`
	Host        string  `yaml:"host" validate:"required"`
	APIKeyEnv   string  `yaml:"api_key_env,omitempty"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gt=0"`
	TimeoutSecs int     `yaml:"timeout_secs" validate:"gt=0"`
}

// EmbeddingConfig configures the embedding backend. Ingestion and querying
// share this configuration so both sides embed in the same vector space.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider" validate:"required,oneof=ollama openai"`
	Model       string `yaml:"model" validate:"required"`
	Host        string `yaml:"host" validate:"required"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gt=0"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" validate:"required,oneof=qdrant memory"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// KnowledgeConfig configures the corpus directory and the retrieval shape.
type KnowledgeConfig struct {
	Dir             string `yaml:"dir" validate:"required"`
	ChunkSize       int    `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap    int    `yaml:"chunk_overlap" validate:"gte=0"`
	TopK            int    `yaml:"top_k" validate:"gt=0"`
	MaxContextChars int    `yaml:"max_context_chars" validate:"gt=0"`
}

// Config is the root application configuration. It is built once at startup
// and handed to the services; nothing re-reads the environment after Load
// returns.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge"`
}

// Load reads a config from the given path, falling back to defaults when the
// file does not exist, then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./tickerai.yaml first, then ~/.config/tickerai/config.yaml.
// Either may be absent; defaults plus environment overrides always apply.
func LoadDefault() (*Config, string, error) {
	cwdPath := "tickerai.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the assembled configuration. It runs once at startup so a
// bad provider identity or missing setting never surfaces mid-query.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: field %s failed on %q", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant == nil {
		return errors.New("config: vector_store.qdrant section missing")
	}
	if c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		return errors.New("config: chunk_overlap must be smaller than chunk_size")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tickerai", "config.yaml"), nil
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.2",
			Host:        "http://localhost:11434",
			Temperature: 0.7,
			MaxTokens:   1000,
			TimeoutSecs: 120,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "nomic-embed-text",
			Host:        "http://localhost:11434",
			TimeoutSecs: 30,
		},
		VectorStore: VectorStoreConfig{
			Type: "qdrant",
			Qdrant: &QdrantConfig{
				URL:        "http://localhost:6333",
				Collection: "stock_documents",
			},
		},
		Knowledge: KnowledgeConfig{
			Dir:             "knowledge",
			ChunkSize:       1000,
			ChunkOverlap:    200,
			TopK:            5,
			MaxContextChars: 4000,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = def.Embedding.TimeoutSecs
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = def.VectorStore.Qdrant
		} else {
			if cfg.VectorStore.Qdrant.Collection == "" {
				cfg.VectorStore.Qdrant.Collection = def.VectorStore.Qdrant.Collection
			}
			if cfg.VectorStore.Qdrant.URL == "" {
				cfg.VectorStore.Qdrant.URL = def.VectorStore.Qdrant.URL
			}
		}
	}
	if cfg.Knowledge.ChunkSize == 0 {
		cfg.Knowledge.ChunkSize = def.Knowledge.ChunkSize
	}
	if cfg.Knowledge.TopK == 0 {
		cfg.Knowledge.TopK = def.Knowledge.TopK
	}
	if cfg.Knowledge.MaxContextChars == 0 {
		cfg.Knowledge.MaxContextChars = def.Knowledge.MaxContextChars
	}
}

// applyEnvOverrides lets every documented setting be overridden from the
// environment. Overrides win over both file values and defaults.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.Host, "LLM_HOST")
	setString(&cfg.LLM.APIKeyEnv, "LLM_API_KEY_ENV")
	setFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setInt(&cfg.LLM.TimeoutSecs, "LLM_TIMEOUT_SECS")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Embedding.Host, "EMBEDDING_HOST")
	setString(&cfg.Embedding.APIKeyEnv, "EMBEDDING_API_KEY_ENV")

	setString(&cfg.VectorStore.Type, "VECTOR_STORE")
	if cfg.VectorStore.Qdrant != nil {
		setString(&cfg.VectorStore.Qdrant.URL, "QDRANT_URL")
		setString(&cfg.VectorStore.Qdrant.APIKey, "QDRANT_API_KEY")
		setString(&cfg.VectorStore.Qdrant.Collection, "QDRANT_COLLECTION")
	}

	setString(&cfg.Knowledge.Dir, "KNOWLEDGE_DIR")
	setInt(&cfg.Knowledge.ChunkSize, "CHUNK_SIZE")
	setInt(&cfg.Knowledge.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&cfg.Knowledge.TopK, "TOP_K_RESULTS")
	setInt(&cfg.Knowledge.MaxContextChars, "MAX_CONTEXT_CHARS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
