package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// MemoryIndex is a brute-force in-process index for development and tests.
// It mirrors the Qdrant backend's semantics: embed-internally, mandatory
// organization scoping, overwrite on chunk id, cosine-distance scores.
type MemoryIndex struct {
	embedder domain.Embedder

	mu     sync.RWMutex
	points map[string]memoryPoint
}

type memoryPoint struct {
	chunk  domain.Chunk
	vector []float32
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(embedder domain.Embedder) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		points:   make(map[string]memoryPoint),
	}
}

// EnsureReady is a no-op; the map is always ready.
func (m *MemoryIndex) EnsureReady(_ context.Context) error { return nil }

// UpsertChunks embeds the whole batch first, then commits it under the lock,
// so a failed embedding leaves the index untouched.
func (m *MemoryIndex) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return err
	}
	for i := range vectors {
		if len(vectors[i]) != m.embedder.Dimension() {
			return fmt.Errorf("%w: vector for %s has dimension %d, index expects %d",
				domain.ErrVectorIndex, chunks[i].ChunkID, len(vectors[i]), m.embedder.Dimension())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		m.points[c.ChunkID] = memoryPoint{chunk: c, vector: vectors[i]}
	}
	return nil
}

// ReplaceDocument swaps the document's stored points for the new chunk set
// in one critical section. Embedding happens before the lock is taken, so a
// provider failure leaves the old points untouched.
func (m *MemoryIndex) ReplaceDocument(ctx context.Context, organizationID, documentID string, chunks []domain.Chunk) error {
	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		var err error
		vectors, err = m.embedder.EmbedMany(ctx, texts)
		if err != nil {
			return err
		}
		for i := range vectors {
			if len(vectors[i]) != m.embedder.Dimension() {
				return fmt.Errorf("%w: vector for %s has dimension %d, index expects %d",
					domain.ErrVectorIndex, chunks[i].ChunkID, len(vectors[i]), m.embedder.Dimension())
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.points {
		if p.chunk.OrganizationID == organizationID && p.chunk.DocumentID == documentID {
			delete(m.points, id)
		}
	}
	for i, c := range chunks {
		m.points[c.ChunkID] = memoryPoint{chunk: c, vector: vectors[i]}
	}
	return nil
}

// Query scans every stored point in the filter scope and returns the topK
// nearest by cosine distance.
func (m *MemoryIndex) Query(ctx context.Context, queryText string, topK int, filter domain.ChunkFilter) ([]domain.ScoredChunk, error) {
	vector, err := m.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	var hits []domain.ScoredChunk
	for _, p := range m.points {
		if p.chunk.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.DocumentID != "" && p.chunk.DocumentID != filter.DocumentID {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			ChunkID: p.chunk.ChunkID,
			Text:    p.chunk.Text,
			Score:   1 - cosineSimilarity(vector, p.vector),
			Metadata: domain.ChunkMetadata{
				DocumentID:     p.chunk.DocumentID,
				OrganizationID: p.chunk.OrganizationID,
				ChunkIndex:     p.chunk.Index,
				ChunkLength:    p.chunk.Length,
			},
		})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score < hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDocument drops all points of one document within one organization.
func (m *MemoryIndex) DeleteByDocument(_ context.Context, organizationID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.points {
		if p.chunk.OrganizationID == organizationID && p.chunk.DocumentID == documentID {
			delete(m.points, id)
		}
	}
	return nil
}

// Len reports the number of stored points. Test helper.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
