package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phuslu/log"

	"tickerai/internal/domain"
)

// Retriever embeds a query and pulls the most relevant chunks for a ticker
// from the vector store.
type Retriever struct {
	embedder        domain.Embedder
	store           domain.VectorStore
	topK            int
	maxContextChars int
	logger          log.Logger

	mu         sync.Mutex
	indexReady bool
}

func NewRetriever(embedder domain.Embedder, store domain.VectorStore, topK, maxContextChars int, logger log.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if maxContextChars <= 0 {
		maxContextChars = 4000
	}
	return &Retriever{
		embedder:        embedder,
		store:           store,
		topK:            topK,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Retrieve returns the top chunks for the question, restricted to the given
// ticker plus GENERAL material, with an assembled context string. Finding
// nothing is not an error; the result is simply empty.
func (r *Retriever) Retrieve(ctx context.Context, ticker, question string) (domain.RetrievalResult, error) {
	query := ticker + " " + question
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}
	if err := r.ensureIndex(ctx, len(vector)); err != nil {
		return domain.RetrievalResult{}, err
	}
	scored, err := r.store.Search(ctx, vector, ticker, r.topK)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("search index: %w", err)
	}
	if len(scored) == 0 {
		r.logger.Info().Str("ticker", ticker).Msg("no relevant chunks found")
		return domain.RetrievalResult{}, nil
	}

	result := domain.RetrievalResult{Chunks: scored}
	result.Context = r.assembleContext(scored)
	seen := make(map[string]bool)
	for _, sc := range scored {
		if !seen[sc.Chunk.DocPath] {
			seen[sc.Chunk.DocPath] = true
			result.Sources = append(result.Sources, sc.Chunk.DocPath)
		}
	}
	r.logger.Info().Str("ticker", ticker).Int("chunks", len(scored)).Float64("top_score", scored[0].Score).Msg("retrieved context")
	return result, nil
}

// ensureIndex checks, once per process, that the store was built by the
// embedder configured now. A persisted index built with a different model
// must refuse queries instead of comparing vectors across embedding spaces.
func (r *Retriever) ensureIndex(ctx context.Context, dimensions int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexReady {
		return nil
	}
	if err := r.store.Init(ctx, dimensions, r.embedder.Name()); err != nil {
		return fmt.Errorf("verify index: %w", err)
	}
	r.indexReady = true
	return nil
}

// assembleContext concatenates chunk texts under source headers, best match
// first, keeping the total within the configured character cap. Chunks that
// no longer fit are dropped whole; the top chunk is always kept, truncated
// if it alone exceeds the cap.
func (r *Retriever) assembleContext(scored []domain.ScoredChunk) string {
	var b strings.Builder
	for i, sc := range scored {
		block := fmt.Sprintf("--- Source: %s (relevance %.2f) ---\n%s", sc.Chunk.DocPath, sc.Score, sc.Chunk.Text)
		if i == 0 {
			if len(block) > r.maxContextChars {
				block = block[:r.maxContextChars]
			}
			b.WriteString(block)
			continue
		}
		if b.Len()+len(block)+2 > r.maxContextChars {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	return b.String()
}
