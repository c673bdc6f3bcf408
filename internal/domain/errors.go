package domain

import "errors"

// Failure classes surfaced by the pipeline. Lower layers wrap these with
// provider detail; boundaries match on them with errors.Is and convert to
// caller-facing results instead of leaking provider types.
var (
	// ErrExtraction means the source document could not be read.
	ErrExtraction = errors.New("document extraction failed")

	// ErrEmbeddingProvider means an embedding call failed. Ingestion treats
	// it as fatal for the whole batch.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrVectorIndex means provisioning, upsert or query against the vector
	// index failed. Callers must not mistake it for an empty result.
	ErrVectorIndex = errors.New("vector index error")

	// ErrGeneration means the answer-model call failed.
	ErrGeneration = errors.New("answer generation failed")

	// ErrValidation means the request was malformed (empty question,
	// missing scoping id).
	ErrValidation = errors.New("validation error")
)
