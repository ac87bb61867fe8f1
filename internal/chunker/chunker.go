package chunker

import (
	"strings"

	"tickerai/internal/domain"
)

// TextChunker splits document text into character windows with overlap.
// Windows prefer to break at a paragraph, then a sentence end, then a word
// boundary before falling back to a hard cut, so chunks rarely sever a
// sentence when a natural break is nearby.
type TextChunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given target chunk size and overlap,
// both measured in characters.
func New(size, overlap int) *TextChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &TextChunker{size: size, overlap: overlap}
}

// Chunk produces ordered chunks for the document. Every chunk inherits the
// document's ticker tag and gets a deterministic ID from the document path
// and its sequence index; whitespace-only segments are dropped. The same
// document and parameters always yield the same boundaries and IDs.
func (c *TextChunker) Chunk(doc domain.SourceDocument) []domain.Chunk {
	runes := []rune(doc.Content)
	var chunks []domain.Chunk
	idx := 0
	start := 0
	for start < len(runes) {
		end := start + c.size
		last := false
		if end >= len(runes) {
			end = len(runes)
			last = true
		} else {
			end = snapToBoundary(runes, start, end)
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, domain.Chunk{
				ID:      domain.ChunkID(doc.RelPath, idx),
				DocPath: doc.RelPath,
				Ticker:  doc.Ticker,
				Index:   idx,
				Text:    text,
			})
			idx++
		}
		if last {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// snapToBoundary moves the window end backwards to the best natural break in
// the second half of the window: paragraph break first, sentence end second,
// word boundary third. When none exists the hard cut at end stands.
func snapToBoundary(runes []rune, start, end int) int {
	min := start + (end-start)/2

	for i := end - 1; i > min; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > min; i-- {
		if isSentenceEnd(runes[i-1]) && (runes[i] == ' ' || runes[i] == '\n') {
			return i + 1
		}
	}
	for i := end - 1; i > min; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
