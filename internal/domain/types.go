package domain

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TickerGeneral tags ticker-agnostic knowledge. Chunks carrying it are
// eligible for every query regardless of the requested ticker.
const TickerGeneral = "GENERAL"

// chunkNamespace is the fixed UUIDv5 namespace for chunk IDs.
var chunkNamespace = uuid.MustParse("9f2c1e4a-55d1-4c6e-9b7a-3d8f0a6b2c41")

// SourceDocument is a single file loaded from the knowledge directory.
// It is immutable after loading; a forced refresh re-reads it wholesale.
type SourceDocument struct {
	Path     string
	RelPath  string
	Format   string
	Ticker   string
	Content  string
	LoadedAt time.Time
}

// Chunk is a bounded, overlap-aware segment of a document's text, the unit
// of embedding and retrieval. Its ID is derived from the document's relative
// path and the chunk index, so re-chunking the same document yields the same
// IDs and upserts overwrite instead of duplicating.
type Chunk struct {
	ID      uuid.UUID
	DocPath string
	Ticker  string
	Index   int
	Text    string
}

// ChunkID derives the stable identifier for chunk index within a document.
func ChunkID(relPath string, index int) uuid.UUID {
	return uuid.NewSHA1(chunkNamespace, []byte(relPath+"#"+strconv.Itoa(index)))
}

// EmbeddingRecord pairs a chunk with its embedding vector. Records are owned
// by the vector store and live until an explicit reset.
type EmbeddingRecord struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a retrieval hit with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is the per-query outcome of retrieval: scored chunks in
// descending relevance order plus the assembled, length-bounded context block.
// Empty Chunks is a legitimate "no context available" state, not an error.
type RetrievalResult struct {
	Chunks  []ScoredChunk
	Context string
	Sources []string
}

// Empty reports whether retrieval found no eligible chunks.
func (r RetrievalResult) Empty() bool { return len(r.Chunks) == 0 }

// QueryRequest is one (ticker, question) pair.
type QueryRequest struct {
	Ticker   string
	Question string
}

// QueryResponse is the answer to a QueryRequest with provenance.
type QueryResponse struct {
	Answer   string
	Sources  []string
	Provider string
	Model    string
	Latency  time.Duration
}

// Chunker splits a document into ordered, overlapping chunks.
type Chunker interface {
	Chunk(doc SourceDocument) []Chunk
}

// Embedder converts text into a fixed-dimension vector. The same embedder
// must serve ingestion and querying; Name identifies the embedding space and
// is stamped into the index so a mismatch can be detected.
type Embedder interface {
	Name() string
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists embedding records and answers filtered nearest
// neighbour queries.
type VectorStore interface {
	// Init prepares the store for vectors of the given dimension and stamps
	// the embedder fingerprint. It fails with ErrEmbedderMismatch when the
	// store was built with a different embedder.
	Init(ctx context.Context, dimensions int, fingerprint string) error
	// Upsert writes records keyed by chunk ID; rewriting an existing ID
	// overwrites rather than duplicates.
	Upsert(ctx context.Context, records []EmbeddingRecord) error
	// Search returns up to k chunks nearest to the vector whose ticker tag
	// equals ticker or TickerGeneral, most similar first.
	Search(ctx context.Context, vector []float32, ticker string, k int) ([]ScoredChunk, error)
	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
	// Reset destroys all persisted records. Used only for full rebuilds.
	Reset(ctx context.Context) error
}

// Provider generates text from a prompt. Implementations wrap one concrete
// backend (a local Ollama runtime, a remote OpenAI-compatible API, ...).
type Provider interface {
	Generate(ctx context.Context, prompt, systemPrompt string, opts GenerateOptions) (string, error)
	ModelName() string
	// Ping checks backend reachability without running inference.
	Ping(ctx context.Context) error
}

// GenerateOptions carries per-call generation parameters.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}
