package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tickerai/internal/domain"
)

// metaPointID is the reserved point holding index metadata. It carries the
// embedder fingerprint so a later session with a different embedding model
// is refused instead of silently searching across vector spaces.
const metaPointID = "00000000-0000-0000-0000-000000000001"

// Storage is a minimal REST client to Qdrant. It assumes cosine distance and
// creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init ensures the collection exists with the given dimension and stamps the
// embedder fingerprint. When the collection already carries a different
// fingerprint, Init fails with ErrEmbedderMismatch.
func (s *Storage) Init(ctx context.Context, dimensions int, fingerprint string) error {
	if dimensions <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimensions

	// Qdrant answers 409 to a create against an existing collection, so
	// check first instead of relying on the PUT status.
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimensions,
				"distance": "Cosine",
			},
		}
		if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
			return err
		}
	}

	stored, err := s.readFingerprint(ctx)
	if err != nil {
		return err
	}
	if stored == "" {
		return s.writeFingerprint(ctx, fingerprint)
	}
	if stored != fingerprint {
		return fmt.Errorf("%w: collection %s was built with %q, configured embedder is %q (rebuild with setup -force)",
			domain.ErrEmbedderMismatch, s.collection, stored, fingerprint)
	}
	return nil
}

// Upsert writes embedding records as points. Point IDs are the deterministic
// chunk UUIDs, so re-ingesting a document overwrites its points in place.
func (s *Storage) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		points[i] = map[string]any{
			"id":     rec.Chunk.ID.String(),
			"vector": rec.Vector,
			"payload": map[string]any{
				"doc_path": rec.Chunk.DocPath,
				"ticker":   rec.Chunk.Ticker,
				"index":    rec.Chunk.Index,
				"text":     rec.Chunk.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// Search returns the k nearest chunks tagged with the given ticker or with
// GENERAL, best first.
func (s *Storage) Search(ctx context.Context, vector []float32, ticker string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"should": []map[string]any{
				{"key": "ticker", "match": map[string]any{"value": ticker}},
				{"key": "ticker", "match": map[string]any{"value": domain.TickerGeneral}},
			},
		},
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if id, err := uuid.Parse(r.ID); err == nil {
			chunk.ID = id
		}
		if v, ok := r.Payload["doc_path"].(string); ok {
			chunk.DocPath = v
		}
		if v, ok := r.Payload["ticker"].(string); ok {
			chunk.Ticker = v
		}
		if v, ok := r.Payload["index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// Count reports the number of stored chunks, excluding the metadata point.
func (s *Storage) Count(ctx context.Context) (int, error) {
	req := map[string]any{
		"exact": true,
		"filter": map[string]any{
			"must_not": []map[string]any{
				{"has_id": []string{metaPointID}},
			},
		},
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection), req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Reset drops the collection. The next Init recreates it empty.
func (s *Storage) Reset(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: qdrant DELETE %s failed: %s", domain.ErrStoreUnavailable, url, resp.Status)
	}
	return nil
}

func (s *Storage) collectionExists(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s (is Qdrant running at %s?)", domain.ErrStoreUnavailable, err, s.url)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: qdrant GET %s failed: %s", domain.ErrStoreUnavailable, url, resp.Status)
	}
}

func (s *Storage) readFingerprint(ctx context.Context) (string, error) {
	req := map[string]any{
		"ids":          []string{metaPointID},
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points", s.url, s.collection), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Result) == 0 {
		return "", nil
	}
	fp, _ := resp.Result[0].Payload["embedder"].(string)
	return fp, nil
}

func (s *Storage) writeFingerprint(ctx context.Context, fingerprint string) error {
	// The meta point carries a zero vector and no ticker, so searches and
	// counts never surface it.
	body := map[string]any{
		"points": []map[string]any{
			{
				"id":     metaPointID,
				"vector": make([]float32, s.dimension),
				"payload": map[string]any{
					"embedder":   fingerprint,
					"dimensions": s.dimension,
				},
			},
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Storage) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s (is Qdrant running at %s?)", domain.ErrStoreUnavailable, err, s.url)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: qdrant PUT %s failed: %s", domain.ErrStoreUnavailable, url, resp.Status)
	}
	return nil
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s (is Qdrant running at %s?)", domain.ErrStoreUnavailable, err, s.url)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: qdrant POST %s failed: %s", domain.ErrStoreUnavailable, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
