package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tickerai/internal/domain"
)

// Client embeds text through a local Ollama server.
type Client struct {
	host      string
	model     string
	dimension int
	client    *http.Client
}

// Config configures the Ollama embeddings client.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// NewClient creates an embeddings client against an Ollama host.
func NewClient(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		host:   cfg.Host,
		model:  cfg.Model,
		client: &http.Client{Timeout: t},
	}
}

// Name identifies the embedding space as provider/model. An index built with
// one name refuses queries embedded under another.
func (c *Client) Name() string { return "ollama/" + c.model }

// Dimensions reports the vector width, known after the first Embed call.
func (c *Client) Dimensions() int { return c.dimension }

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(map[string]string{
		"model":  c.model,
		"prompt": text,
	})
	url := c.host + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (is Ollama running? try: ollama serve)", domain.ErrEmbedderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: ollama embeddings returned %s: %s", domain.ErrEmbedderUnavailable, resp.Status, bytes.TrimSpace(payload))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode ollama response: %s", domain.ErrEmbedderUnavailable, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned an empty embedding (is model %q pulled? try: ollama pull %s)", domain.ErrEmbedderUnavailable, c.model, c.model)
	}
	if c.dimension == 0 {
		c.dimension = len(out.Embedding)
	}
	return out.Embedding, nil
}
