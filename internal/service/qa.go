package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// fallbackAnswer is returned verbatim when retrieval finds nothing; the
// generator is never called in that case.
const fallbackAnswer = "I could not find relevant information to answer your question."

// fallbackConfidence marks the no-context terminal case. Its casing differs
// from the relevance buckets, so "no answer at all" stays distinguishable
// from a weak answer.
const fallbackConfidence = domain.Relevance("LOW")

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context.

Context information:
%s

Question: %s

Instructions:
- Answer the question based only on the provided context
- If the context does not contain enough information to answer the question, say so
- Be concise and accurate
- Do not make up information that is not in the context

Answer:`

// SearchProvider is the slice of the retrieval service the answerer needs.
type SearchProvider interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.SearchResult, error)
}

// Answerer synthesizes grounded answers from retrieved context.
type Answerer struct {
	searcher  SearchProvider
	generator domain.Generator
	log       *zap.Logger
}

// NewAnswerer builds the question-answering service.
func NewAnswerer(searcher SearchProvider, generator domain.Generator, log *zap.Logger) *Answerer {
	return &Answerer{
		searcher:  searcher,
		generator: generator,
		log:       log.Named("qa"),
	}
}

// AskRequest scopes one question. DocumentID optionally narrows the context
// to a single document.
type AskRequest struct {
	Question       string
	OrganizationID string
	DocumentID     string
	TopK           int
}

// Ask retrieves context for the question and synthesizes an answer from it.
// When retrieval comes back empty the fixed fallback answer is returned
// without invoking the model.
func (a *Answerer) Ask(ctx context.Context, req AskRequest) (domain.Answer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return domain.Answer{}, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}

	sources, err := a.searcher.Search(ctx, SearchRequest{
		Query:          req.Question,
		OrganizationID: req.OrganizationID,
		DocumentID:     req.DocumentID,
		TopK:           req.TopK,
	})
	if err != nil {
		return domain.Answer{}, err
	}

	if len(sources) == 0 {
		a.log.Info("no context found for question",
			zap.String("organization_id", req.OrganizationID))
		return domain.Answer{
			Answer:         fallbackAnswer,
			Confidence:     fallbackConfidence,
			ContextSources: []domain.SearchResult{},
			ContextUsed:    "",
		}, nil
	}

	contextBlock := buildContextBlock(sources)
	prompt := fmt.Sprintf(promptTemplate, contextBlock, req.Question)

	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, err
	}

	return domain.Answer{
		Answer:         strings.TrimSpace(answer),
		Confidence:     confidenceFor(sources),
		ContextSources: sources,
		ContextUsed:    contextBlock,
	}, nil
}

// buildContextBlock numbers each retrieved chunk so the model can refer to
// its sources.
func buildContextBlock(sources []domain.SearchResult) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("Context %d: %s", i+1, src.Text)
	}
	return strings.Join(parts, "\n\n")
}

// confidenceFor buckets the mean distance of the used context. Averaging
// keeps one stray weak hit from flipping the label.
func confidenceFor(sources []domain.SearchResult) domain.Relevance {
	total := 0.0
	for _, src := range sources {
		total += src.Score
	}
	return domain.RelevanceForScore(total / float64(len(sources)))
}
