package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerai/internal/domain"
)

func doc(content string) domain.SourceDocument {
	return domain.SourceDocument{
		Path:    "/knowledge/AAPL_info.txt",
		RelPath: "AAPL_info.txt",
		Format:  "text",
		Ticker:  "AAPL",
		Content: content,
	}
}

func TestChunkWindowsAdvanceByStride(t *testing.T) {
	// 2400 chars with no natural boundaries: windows of 1000 with overlap
	// 200 start at 0, 800 and 1600.
	var b strings.Builder
	for i := 0; i < 2400; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	content := b.String()

	chunks := New(1000, 200).Chunk(doc(content))
	require.Len(t, chunks, 3)
	assert.Equal(t, content[0:1000], chunks[0].Text)
	assert.Equal(t, content[800:1800], chunks[1].Text)
	assert.Equal(t, content[1600:2400], chunks[2].Text)
}

func TestChunkPrefersParagraphBreak(t *testing.T) {
	content := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 60)
	chunks := New(50, 10).Chunk(doc(content))
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Repeat("a", 30), chunks[0].Text)
}

func TestChunkPrefersSentenceEnd(t *testing.T) {
	content := strings.Repeat("The quick brown fox jumps over the dog. ", 10)
	chunks := New(100, 0).Chunk(doc(content))
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c.Text, "."), "chunk %d should end at a sentence: %q", c.Index, c.Text)
	}
}

func TestChunkShortDocumentIsSingleChunk(t *testing.T) {
	chunks := New(1000, 200).Chunk(doc("Apple reported record revenue."))
	require.Len(t, chunks, 1)
	assert.Equal(t, "Apple reported record revenue.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunkDropsWhitespaceOnly(t *testing.T) {
	chunks := New(1000, 200).Chunk(doc("   \n\n\t  "))
	assert.Empty(t, chunks)
}

func TestChunkInheritsTickerAndPath(t *testing.T) {
	chunks := New(20, 5).Chunk(doc(strings.Repeat("word ", 30)))
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, "AAPL", c.Ticker)
		assert.Equal(t, "AAPL_info.txt", c.DocPath)
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkIDsAreDeterministic(t *testing.T) {
	content := strings.Repeat("Some sentence about revenue. ", 100)
	first := New(200, 50).Chunk(doc(content))
	second := New(200, 50).Chunk(doc(content))
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
	assert.Equal(t, domain.ChunkID("AAPL_info.txt", 0), first[0].ID)
}

func TestChunkIDsDifferAcrossDocuments(t *testing.T) {
	a := domain.ChunkID("AAPL_info.txt", 0)
	b := domain.ChunkID("MSFT_info.txt", 0)
	assert.NotEqual(t, a, b)
}
