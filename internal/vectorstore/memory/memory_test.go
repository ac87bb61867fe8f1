package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerai/internal/domain"
)

func record(relPath string, index int, ticker string, vec []float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		Chunk: domain.Chunk{
			ID:      domain.ChunkID(relPath, index),
			DocPath: relPath,
			Ticker:  ticker,
			Index:   index,
			Text:    relPath,
		},
		Vector: vec,
	}
}

func newReady(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage()
	require.NoError(t, s.Init(context.Background(), 2, "ollama/nomic-embed-text"))
	return s
}

func TestSearchFiltersByTickerAndGeneral(t *testing.T) {
	ctx := context.Background()
	s := newReady(t)
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_info.txt", 0, "AAPL", []float32{1, 0}),
		record("MSFT_info.txt", 0, "MSFT", []float32{1, 0}),
		record("market_overview.md", 0, domain.TickerGeneral, []float32{0.9, 0.1}),
	}))

	results, err := s.Search(ctx, []float32{1, 0}, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "MSFT", r.Chunk.Ticker)
	}
}

func TestSearchOrdersByScoreAndLimitsK(t *testing.T) {
	ctx := context.Background()
	s := newReady(t)
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_a.txt", 0, "AAPL", []float32{0, 1}),
		record("AAPL_b.txt", 0, "AAPL", []float32{1, 0}),
		record("AAPL_c.txt", 0, "AAPL", []float32{0.7, 0.7}),
	}))

	results, err := s.Search(ctx, []float32{1, 0}, "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "AAPL_b.txt", results[0].Chunk.DocPath)
	assert.Equal(t, "AAPL_c.txt", results[1].Chunk.DocPath)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchEqualScoresKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newReady(t)
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_first.txt", 0, "AAPL", []float32{1, 0}),
		record("AAPL_second.txt", 0, "AAPL", []float32{1, 0}),
		record("AAPL_third.txt", 0, "AAPL", []float32{1, 0}),
	}))

	results, err := s.Search(ctx, []float32{1, 0}, "AAPL", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "AAPL_first.txt", results[0].Chunk.DocPath)
	assert.Equal(t, "AAPL_second.txt", results[1].Chunk.DocPath)
	assert.Equal(t, "AAPL_third.txt", results[2].Chunk.DocPath)
}

func TestUpsertSameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newReady(t)
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_info.txt", 0, "AAPL", []float32{1, 0}),
	}))
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_info.txt", 0, "AAPL", []float32{0, 1}),
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := s.Search(ctx, []float32{0, 1}, "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	s := newReady(t)
	err := s.Upsert(context.Background(), []domain.EmbeddingRecord{
		record("AAPL_info.txt", 0, "AAPL", []float32{1, 0, 0}),
	})
	assert.Error(t, err)
}

func TestInitRefusesDifferentFingerprint(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2, "ollama/nomic-embed-text"))

	err := s.Init(ctx, 2, "openai/text-embedding-3-small")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedderMismatch)

	require.NoError(t, s.Reset(ctx))
	assert.NoError(t, s.Init(ctx, 2, "openai/text-embedding-3-small"))
}

func TestResetDropsEverything(t *testing.T) {
	ctx := context.Background()
	s := newReady(t)
	require.NoError(t, s.Upsert(ctx, []domain.EmbeddingRecord{
		record("AAPL_info.txt", 0, "AAPL", []float32{1, 0}),
	}))
	require.NoError(t, s.Reset(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
