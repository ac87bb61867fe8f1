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

// Client generates text through a local Ollama server.
type Client struct {
	host   string
	model  string
	client *http.Client
}

// Config configures the Ollama generation client.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// NewClient creates a generation client against an Ollama host.
func NewClient(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &Client{
		host:   cfg.Host,
		model:  cfg.Model,
		client: &http.Client{Timeout: t},
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string { return c.model }

// Ping checks that the Ollama server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s (is Ollama running? try: ollama serve)", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama returned %s", domain.ErrProviderUnavailable, resp.Status)
	}
	return nil
}

// Generate produces a single non-streamed completion for the prompt.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string, opts domain.GenerateOptions) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"system": systemPrompt,
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s (is Ollama running? try: ollama serve)", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: ollama generate returned %s: %s", domain.ErrProviderUnavailable, resp.Status, bytes.TrimSpace(payload))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode ollama response: %s", domain.ErrProviderUnavailable, err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("%w: ollama returned an empty completion (is model %q pulled? try: ollama pull %s)", domain.ErrProviderUnavailable, c.model, c.model)
	}
	return out.Response, nil
}
