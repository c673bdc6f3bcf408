package domain

import "context"

// TextExtractor turns an uploaded file's bytes into a single text blob.
// Failures are reported as ErrExtraction.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// Chunker splits extracted text into ordered, overlapping chunks with
// deterministic ids. Identical input always yields identical output.
type Chunker interface {
	Split(text, documentID, organizationID string) []Chunk
}

// Embedder converts text into fixed-dimension vectors. EmbedMany is
// order-preserving: one vector per input text, all of Dimension() width.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorIndex is a multi-tenant nearest-neighbour index over chunk text.
// Implementations embed internally via an Embedder, so callers hand over
// text plus metadata and get distance-scored text back.
type VectorIndex interface {
	// EnsureReady provisions the backing index if absent and blocks, with a
	// bounded timeout, until the provider reports it ready. Idempotent and
	// safe to call concurrently.
	EnsureReady(ctx context.Context) error

	// UpsertChunks stores all chunks or none of them. Re-upserting a chunk
	// id overwrites the previous entry.
	UpsertChunks(ctx context.Context, chunks []Chunk) error

	// ReplaceDocument swaps the stored chunk set of one document for the
	// given chunks, which may be empty. The new chunks are embedded before
	// any existing chunk is removed, so an embedding failure leaves the
	// previous chunk set intact and searchable.
	ReplaceDocument(ctx context.Context, organizationID, documentID string, chunks []Chunk) error

	// Query returns at most topK hits matching the filter, ordered by
	// ascending distance. An empty result is not an error.
	Query(ctx context.Context, queryText string, topK int, filter ChunkFilter) ([]ScoredChunk, error)

	// DeleteByDocument removes every chunk of the given document within the
	// given organization.
	DeleteByDocument(ctx context.Context, organizationID, documentID string) error
}

// Generator invokes the answer model once per prompt. Failures are reported
// as ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
