package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"

	"tickerai/internal/domain"
)

// defaultWorkers bounds concurrent embedding requests so a local Ollama is
// not flooded.
const defaultWorkers = 4

// Loader yields the documents to ingest.
type Loader interface {
	Load(ctx context.Context) ([]domain.SourceDocument, error)
}

// Stats describes the state of the index after an ingestion run.
type Stats struct {
	Documents int
	Chunks    int
	Embedder  string
	Skipped   bool
}

// Ingestor builds the vector index from the knowledge directory: load,
// chunk, embed, upsert, verify.
type Ingestor struct {
	loader   Loader
	chunker  domain.Chunker
	embedder domain.Embedder
	store    domain.VectorStore
	logger   log.Logger
	workers  int
}

func NewIngestor(loader Loader, chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, logger log.Logger) *Ingestor {
	return &Ingestor{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		logger:   logger,
		workers:  defaultWorkers,
	}
}

// Run ingests the corpus. With force the index is rebuilt from scratch;
// without it a non-empty index is left untouched. Chunk IDs are derived from
// document path and position, so a rebuild of the same corpus produces the
// same IDs and upserts replace rather than duplicate.
func (ing *Ingestor) Run(ctx context.Context, force bool) (Stats, error) {
	if force {
		if err := ing.store.Reset(ctx); err != nil {
			return Stats{}, fmt.Errorf("reset index: %w", err)
		}
		ing.logger.Info().Msg("existing index dropped")
	}

	// Embedding one probe text tells us the vector dimension before the
	// collection has to exist.
	probe, err := ing.embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return Stats{}, fmt.Errorf("probe embedding: %w", err)
	}
	fingerprint := ing.embedder.Name()
	if err := ing.store.Init(ctx, len(probe), fingerprint); err != nil {
		return Stats{}, fmt.Errorf("init index: %w", err)
	}

	existing, err := ing.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count index: %w", err)
	}
	if existing > 0 && !force {
		ing.logger.Info().Int("chunks", existing).Msg("index already populated, skipping ingestion (use -force to rebuild)")
		return Stats{Chunks: existing, Embedder: fingerprint, Skipped: true}, nil
	}

	docs, err := ing.loader.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		ing.logger.Warn().Msg("knowledge directory holds no readable documents")
		return Stats{Embedder: fingerprint}, nil
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks := ing.chunker.Chunk(doc)
		ing.logger.Info().Str("file", doc.RelPath).Str("ticker", doc.Ticker).Int("chunks", len(docChunks)).Msg("chunked document")
		chunks = append(chunks, docChunks...)
	}

	records, err := ing.embedAll(ctx, chunks)
	if err != nil {
		return Stats{}, err
	}
	if err := ing.store.Upsert(ctx, records); err != nil {
		return Stats{}, fmt.Errorf("upsert chunks: %w", err)
	}

	stored, err := ing.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("verify index: %w", err)
	}
	if stored < len(chunks) {
		return Stats{}, fmt.Errorf("%w: stored %d of %d chunks", domain.ErrStoreUnavailable, stored, len(chunks))
	}

	ing.logger.Info().Int("documents", len(docs)).Int("chunks", stored).Str("embedder", fingerprint).Msg("index built")
	return Stats{Documents: len(docs), Chunks: stored, Embedder: fingerprint}, nil
}

// embedAll embeds chunks with a bounded worker pool, preserving chunk order
// in the returned records. The first embedding failure cancels the rest.
func (ing *Ingestor) embedAll(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddingRecord, error) {
	records := make([]domain.EmbeddingRecord, len(chunks))
	jobs := make(chan int)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	workers := ing.workers
	if workers > len(chunks) {
		workers = len(chunks)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vec, err := ing.embedder.Embed(ctx, chunks[i].Text)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("embed chunk %d of %s: %w", chunks[i].Index, chunks[i].DocPath, err)
					}
					mu.Unlock()
					cancel()
					return
				}
				records[i] = domain.EmbeddingRecord{Chunk: chunks[i], Vector: vec}
			}
		}()
	}

feed:
	for i := range chunks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	// Cancellation during feeding leaves no worker error behind but the
	// records incomplete.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
