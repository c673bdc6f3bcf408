package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

func TestPointIDStableAndDistinct(t *testing.T) {
	assert.Equal(t, pointID("doc1_chunk_0"), pointID("doc1_chunk_0"))
	assert.NotEqual(t, pointID("doc1_chunk_0"), pointID("doc1_chunk_1"))
	assert.Len(t, pointID("doc1_chunk_0"), 36)
}

func TestSimilarityToDistance(t *testing.T) {
	assert.InDelta(t, 0.0, similarityToDistance(1.0), 1e-6)
	assert.InDelta(t, 0.3, similarityToDistance(0.7), 1e-6)
	assert.InDelta(t, 1.0, similarityToDistance(0.0), 1e-6)
}

func TestChunkPayloadRoundTrip(t *testing.T) {
	c := domain.Chunk{
		ChunkID:        "doc1_chunk_2",
		DocumentID:     "doc1",
		OrganizationID: "org-a",
		Index:          2,
		Text:           "payload body",
		Length:         12,
	}

	got := scoredChunkFromPayload(chunkPayload(c), 0.25)
	assert.Equal(t, c.ChunkID, got.ChunkID)
	assert.Equal(t, c.Text, got.Text)
	assert.Equal(t, 0.25, got.Score)
	assert.Equal(t, c.DocumentID, got.Metadata.DocumentID)
	assert.Equal(t, c.OrganizationID, got.Metadata.OrganizationID)
	assert.Equal(t, c.Index, got.Metadata.ChunkIndex)
	assert.Equal(t, c.Length, got.Metadata.ChunkLength)
}

func TestScopeFilterAlwaysIncludesOrganization(t *testing.T) {
	f := scopeFilter(domain.ChunkFilter{OrganizationID: "org-a"})
	require.Len(t, f.Must, 1)
	field := f.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, payloadOrganizationID, field.Key)
	assert.Equal(t, "org-a", field.Match.GetKeyword())
}

func TestScopeFilterAddsDocumentCondition(t *testing.T) {
	f := scopeFilter(domain.ChunkFilter{OrganizationID: "org-a", DocumentID: "doc1"})
	require.Len(t, f.Must, 2)
	assert.Equal(t, payloadOrganizationID, f.Must[0].GetField().Key)
	assert.Equal(t, payloadDocumentID, f.Must[1].GetField().Key)
	assert.Equal(t, "doc1", f.Must[1].GetField().Match.GetKeyword())
}
