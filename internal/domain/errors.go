package domain

import "errors"

// Sentinel errors for the failure taxonomy. Each stage wraps these with
// fmt.Errorf("...: %w", ...) so callers can tell stages apart with errors.Is.
var (
	// ErrEmbedderUnavailable means the embedding backend could not be
	// reached; the whole ingestion or query operation fails.
	ErrEmbedderUnavailable = errors.New("embedding backend unavailable")

	// ErrStoreUnavailable means the vector store could not be reached or a
	// write could not be verified.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbedderMismatch means the index was built with a different
	// embedding function than the one configured now. Querying across
	// embedding spaces degrades relevance silently, so this is refused.
	ErrEmbedderMismatch = errors.New("index embedder mismatch")

	// ErrProviderUnavailable means the generation backend is unreachable,
	// timed out, or returned an unusable response. Distinct from an answer
	// produced with empty context.
	ErrProviderUnavailable = errors.New("generation provider unavailable")

	// ErrUnknownProvider means the configured provider identity is not
	// recognised. Raised at startup, never mid-query.
	ErrUnknownProvider = errors.New("unknown provider")
)
