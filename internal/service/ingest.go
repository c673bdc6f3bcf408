// Package service wires the pipeline stages into the operations the API
// exposes: ingest a document, search an organization's chunks, answer a
// question over them.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// Ingestor runs extract, chunk and index for one document.
type Ingestor struct {
	extractor domain.TextExtractor
	chunker   domain.Chunker
	index     domain.VectorIndex
	log       *zap.Logger
}

// NewIngestor builds the ingestion pipeline from its stages.
func NewIngestor(extractor domain.TextExtractor, chunker domain.Chunker, index domain.VectorIndex, log *zap.Logger) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		chunker:   chunker,
		index:     index,
		log:       log.Named("ingest"),
	}
}

// Ingest replaces whatever the index holds for the document with chunks of
// the uploaded bytes, and returns how many chunks were indexed. The index
// swaps the old chunk set for the new one only after the new chunks embed
// successfully, so a failed re-ingestion keeps the previous version
// searchable, and a shorter re-upload cannot leave stale higher-index
// chunks behind. A document with no extractable text ends up with zero
// chunks, which is a success.
func (s *Ingestor) Ingest(ctx context.Context, data []byte, documentID, organizationID string) (int, error) {
	if documentID == "" || organizationID == "" {
		return 0, fmt.Errorf("%w: document id and organization id are required", domain.ErrValidation)
	}

	text, err := s.extractor.Extract(data)
	if err != nil {
		return 0, err
	}

	chunks := s.chunker.Split(text, documentID, organizationID)

	if err := s.index.ReplaceDocument(ctx, organizationID, documentID, chunks); err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		s.log.Info("document yielded no text",
			zap.String("document_id", documentID),
			zap.String("organization_id", organizationID))
		return 0, nil
	}

	s.log.Info("document ingested",
		zap.String("document_id", documentID),
		zap.String("organization_id", organizationID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
