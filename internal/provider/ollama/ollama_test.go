package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerai/internal/domain"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Contains(t, req["prompt"], "Question about AAPL")
		opts := req["options"].(map[string]any)
		assert.Equal(t, 0.7, opts["temperature"])
		json.NewEncoder(w).Encode(map[string]string{"response": "Apple is doing fine."})
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL, Model: "llama3.2"})
	out, err := c.Generate(context.Background(), "Question about AAPL: how is it?", "You are an analyst.",
		domain.GenerateOptions{Temperature: 0.7, MaxTokens: 1000})
	require.NoError(t, err)
	assert.Equal(t, "Apple is doing fine.", out)
}

func TestGenerateServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{Host: srv.URL, Model: "llama3.2"})
	_, err := c.Generate(context.Background(), "prompt", "system", domain.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "ollama serve")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL})
	assert.NoError(t, c.Ping(context.Background()))

	srv.Close()
	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrProviderUnavailable)
}
