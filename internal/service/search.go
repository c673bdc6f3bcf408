package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// DefaultTopK is the result cap used when the caller does not ask for one.
const DefaultTopK = 5

// Searcher retrieves scored chunks for a query within one organization.
type Searcher struct {
	index domain.VectorIndex
	log   *zap.Logger
}

// NewSearcher builds the retrieval service over a vector index.
func NewSearcher(index domain.VectorIndex, log *zap.Logger) *Searcher {
	return &Searcher{index: index, log: log.Named("search")}
}

// SearchRequest scopes one retrieval call. OrganizationID comes from the
// authenticated caller, never from client input.
type SearchRequest struct {
	Query          string
	OrganizationID string
	DocumentID     string
	TopK           int
}

// Search returns up to TopK results ordered by ascending distance, each
// labelled with its relevance bucket. No results is a valid outcome.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) ([]domain.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}
	if req.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrValidation)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := s.index.Query(ctx, req.Query, topK, domain.ChunkFilter{
		OrganizationID: req.OrganizationID,
		DocumentID:     req.DocumentID,
	})
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResult{
			Text:      hit.Text,
			Score:     hit.Score,
			Relevance: domain.RelevanceForScore(hit.Score),
			Metadata:  hit.Metadata,
		})
	}

	s.log.Debug("search completed",
		zap.String("organization_id", req.OrganizationID),
		zap.Int("results", len(results)))
	return results, nil
}
