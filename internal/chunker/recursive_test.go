package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniqueWords builds a space-separated text of unique tokens totalling at
// least n characters, with no paragraph or sentence separators.
func uniqueWords(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "tok%05d", i)
	}
	return b.String()[:n]
}

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)

	assert.Empty(t, s.Split("", "doc1", "org1"))
	assert.Empty(t, s.Split("   \n\t  ", "doc1", "org1"))
}

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)

	chunks := s.Split("  hello world  ", "doc1", "org1")
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc1_chunk_0", chunks[0].ChunkID)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 11, chunks[0].Length)
	assert.Equal(t, "doc1", chunks[0].DocumentID)
	assert.Equal(t, "org1", chunks[0].OrganizationID)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	text := uniqueWords(5000)

	first := s.Split(text, "doc1", "org1")
	second := s.Split(text, "doc1", "org1")
	assert.Equal(t, first, second)
}

func TestSplitLongTextNoParagraphs(t *testing.T) {
	// 2,500 characters with only word boundaries should produce three
	// ~1000-char segments with ~200 chars of carried overlap.
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	text := uniqueWords(2500)

	chunks := s.Split(text, "doc1", "org1")
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("doc1_chunk_%d", i), c.ChunkID)
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.Length, DefaultChunkSize)
	}
	assert.Greater(t, chunks[0].Length, 700)
	assert.Greater(t, chunks[1].Length, 700)
}

func TestSplitOverlapSharesContent(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	text := uniqueWords(5000)

	chunks := s.Split(text, "doc1", "org1")
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		next := strings.Fields(chunks[i+1].Text)
		require.NotEmpty(t, next)
		// The next segment opens with tokens carried over from the tail of
		// the previous one.
		assert.Contains(t, chunks[i].Text, next[0],
			"chunk %d should share its overlap window with chunk %d", i, i+1)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	p1 := strings.Repeat("a", 400)
	p2 := strings.Repeat("b", 400)
	p3 := strings.Repeat("c", 400)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	chunks := s.Split(text, "doc1", "org1")
	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n\n"+p2, chunks[0].Text)
	assert.Equal(t, p3, chunks[1].Text)
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	text := strings.Repeat("x", 2500)

	chunks := s.Split(text, "doc1", "org1")
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, chunks[0].Length)
	assert.Equal(t, 1000, chunks[1].Length)
	assert.Equal(t, 900, chunks[2].Length)
}

func TestSplitSentenceBoundaries(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %d carries a modest amount of body text to fill space. ", i)
	}

	chunks := s.Split(b.String(), "doc1", "org1")
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, c.Length, DefaultChunkSize)
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

func TestSplitDropsEmptySegments(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	text := "first paragraph\n\n   \n\n\n\nsecond paragraph"

	chunks := s.Split(text, "doc1", "org1")
	for i, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
		assert.Equal(t, i, c.Index, "indexes must stay dense after dropping empties")
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	for _, overlap := range []int{-1, 0} {
		s := NewSplitter(0, overlap)
		assert.Equal(t, DefaultChunkSize, s.chunkSize)
		assert.Equal(t, DefaultOverlap, s.overlap)
	}
}

func TestDefaultConstructionCarriesOverlap(t *testing.T) {
	// The zero-value construction used by the bootstrap must still produce
	// overlapping chunks, not back-to-back cuts.
	s := NewSplitter(0, 0)
	text := uniqueWords(2500)

	chunks := s.Split(text, "doc1", "org1")
	require.Len(t, chunks, 3)
	for i := 0; i < len(chunks)-1; i++ {
		next := strings.Fields(chunks[i+1].Text)
		require.NotEmpty(t, next)
		assert.Contains(t, chunks[i].Text, next[0],
			"chunk %d must share its tail with chunk %d", i, i+1)
	}
}
