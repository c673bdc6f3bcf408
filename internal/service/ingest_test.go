package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/chunker"
	"github.com/sourabhgrover/org-user-rag/internal/domain"
	"github.com/sourabhgrover/org-user-rag/internal/embedding/hashing"
	"github.com/sourabhgrover/org-user-rag/internal/vectorindex"
)

// stubExtractor returns its fixed text, or fails.
type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract([]byte) (string, error) { return s.text, s.err }

// failingEmbedder always errors, standing in for a provider outage.
type failingEmbedder struct{}

func (failingEmbedder) EmbedMany(context.Context, []string) ([][]float32, error) {
	return nil, domain.ErrEmbeddingProvider
}

func (failingEmbedder) EmbedOne(context.Context, string) ([]float32, error) {
	return nil, domain.ErrEmbeddingProvider
}

func (failingEmbedder) Dimension() int { return 8 }

func newIngestor(text string, index domain.VectorIndex) *Ingestor {
	return NewIngestor(
		stubExtractor{text: text},
		chunker.NewSplitter(chunker.DefaultChunkSize, chunker.DefaultOverlap),
		index,
		zap.NewNop(),
	)
}

func TestIngestIndexesChunks(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))

	count, err := newIngestor("databases keep structured records on disk", index).
		Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, index.Len())
}

func TestIngestValidatesIDs(t *testing.T) {
	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))
	ing := newIngestor("text", index)

	_, err := ing.Ingest(context.Background(), nil, "", "org-a")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = ing.Ingest(context.Background(), nil, "doc1", "")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestIngestPropagatesExtractionFailure(t *testing.T) {
	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))
	ing := NewIngestor(
		stubExtractor{err: domain.ErrExtraction},
		chunker.NewSplitter(0, 0),
		index,
		zap.NewNop(),
	)

	_, err := ing.Ingest(context.Background(), nil, "doc1", "org-a")
	assert.True(t, errors.Is(err, domain.ErrExtraction))
	assert.Equal(t, 0, index.Len())
}

func TestReingestReplacesStaleChunks(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))

	// Long enough to produce multiple chunks on first ingest.
	long := ""
	for i := 0; i < 120; i++ {
		long += "a sentence that pads the first version of the document out. "
	}
	count, err := newIngestor(long, index).Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	require.Greater(t, count, 1)

	count, err = newIngestor("a much shorter second version", index).
		Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, index.Len(), "stale higher-index chunks must not survive re-ingestion")
}

func TestIngestEmptyTextClearsDocument(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))

	_, err := newIngestor("original content", index).Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	require.Equal(t, 1, index.Len())

	count, err := newIngestor("   ", index).Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, index.Len())
}

func TestIngestAbortsBatchOnEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	index := vectorindex.NewMemoryIndex(failingEmbedder{})

	_, err := newIngestor("some content to embed", index).Ingest(ctx, nil, "doc1", "org-a")
	assert.True(t, errors.Is(err, domain.ErrEmbeddingProvider))
	assert.Equal(t, 0, index.Len(), "failed batch must leave nothing behind")
}

// switchableEmbedder embeds normally until fail is flipped.
type switchableEmbedder struct {
	inner domain.Embedder
	fail  bool
}

func (s *switchableEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, domain.ErrEmbeddingProvider
	}
	return s.inner.EmbedMany(ctx, texts)
}

func (s *switchableEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, domain.ErrEmbeddingProvider
	}
	return s.inner.EmbedOne(ctx, text)
}

func (s *switchableEmbedder) Dimension() int { return s.inner.Dimension() }

func TestFailedReingestKeepsPreviousVersionSearchable(t *testing.T) {
	ctx := context.Background()
	embedder := &switchableEmbedder{inner: hashing.NewEmbedder(64)}
	index := vectorindex.NewMemoryIndex(embedder)

	_, err := newIngestor("the first version of the document", index).
		Ingest(ctx, nil, "doc1", "org-a")
	require.NoError(t, err)
	require.Equal(t, 1, index.Len())

	embedder.fail = true
	_, err = newIngestor("the second version of the document", index).
		Ingest(ctx, nil, "doc1", "org-a")
	require.ErrorIs(t, err, domain.ErrEmbeddingProvider)

	embedder.fail = false
	hits, err := index.Query(ctx, "first version", 5, domain.ChunkFilter{OrganizationID: "org-a"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Text, "first version")
}
