// Package memory provides an in-process vector store. It backs tests and
// small corpora where running Qdrant is not worth the setup.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tickerai/internal/domain"
)

// Storage keeps embedding records in memory and searches them by brute-force
// cosine similarity. Records are held in insertion order; equal scores keep
// that order in search results.
type Storage struct {
	mu          sync.RWMutex
	dimension   int
	fingerprint string
	records     []domain.EmbeddingRecord
	byID        map[uuid.UUID]int
}

func NewStorage() *Storage {
	return &Storage{byID: make(map[uuid.UUID]int)}
}

// Init records the vector dimension and embedder fingerprint. A second Init
// with a different fingerprint fails with ErrEmbedderMismatch until Reset.
func (s *Storage) Init(ctx context.Context, dimensions int, fingerprint string) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimension %d", dimensions)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprint != "" && s.fingerprint != fingerprint {
		return fmt.Errorf("%w: store was built with %q, configured embedder is %q",
			domain.ErrEmbedderMismatch, s.fingerprint, fingerprint)
	}
	s.dimension = dimensions
	s.fingerprint = fingerprint
	return nil
}

// Upsert inserts records, overwriting any existing record with the same ID.
func (s *Storage) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("vector dimension %d does not match store dimension %d", len(rec.Vector), s.dimension)
		}
		if i, ok := s.byID[rec.Chunk.ID]; ok {
			s.records[i] = rec
			continue
		}
		s.byID[rec.Chunk.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

// Search returns up to k chunks tagged with the given ticker or with GENERAL,
// ordered by descending cosine similarity.
func (s *Storage) Search(ctx context.Context, vector []float32, ticker string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []domain.ScoredChunk
	for _, rec := range s.records {
		if rec.Chunk.Ticker != ticker && rec.Chunk.Ticker != domain.TickerGeneral {
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk: rec.Chunk,
			Score: cosine(vector, rec.Vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count reports the number of stored chunks.
func (s *Storage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Reset drops all records and the fingerprint.
func (s *Storage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[uuid.UUID]int)
	s.fingerprint = ""
	s.dimension = 0
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
