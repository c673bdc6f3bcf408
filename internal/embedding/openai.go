// Package embedding wraps the embedding provider behind the Embedder
// contract: order-preserving batch embedding with a fixed vector dimension.
package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// Config configures the OpenAI-compatible embeddings gateway.
type Config struct {
	// BaseURL of the provider API. Empty means the OpenAI default.
	BaseURL string
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string
	// Model is the embedding model name.
	Model string
	// Dimension is the width of the vectors the model produces. The vector
	// index is provisioned with this value and rejects mismatches.
	Dimension int
}

// Gateway is the embedding gateway over an OpenAI-compatible provider.
// There is no local caching: every call re-embeds.
type Gateway struct {
	embedder  embeddings.Embedder
	dimension int
}

// NewGateway creates an embeddings gateway using the provided configuration.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-ada-002"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}

	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Gateway{embedder: embedder, dimension: cfg.Dimension}, nil
}

// EmbedMany returns one vector per input text, in input order. Any provider
// failure aborts the whole batch.
func (g *Gateway) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := g.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingProvider, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedOne embeds a single query text.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vector, err := g.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}
	return vector, nil
}

// Dimension returns the configured vector width.
func (g *Gateway) Dimension() int { return g.dimension }
