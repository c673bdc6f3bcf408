// Package vectorindex implements the multi-tenant chunk index. Both backends
// embed internally: callers hand over text and metadata and receive
// distance-scored text back. Scores are cosine distances, lower is closer.
package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

const (
	payloadChunkID        = "chunk_id"
	payloadText           = "text"
	payloadDocumentID     = "document_id"
	payloadOrganizationID = "organization_id"
	payloadChunkIndex     = "chunk_index"
	payloadChunkLength    = "chunk_length"

	defaultReadyTimeout = 30 * time.Second
	readyPollInterval   = 500 * time.Millisecond
)

// QdrantConfig configures the Qdrant-backed index.
type QdrantConfig struct {
	Host         string
	Port         int
	APIKey       string
	UseTLS       bool
	Collection   string
	ReadyTimeout time.Duration
}

// QdrantIndex stores chunks in a single Qdrant collection shared by all
// tenants. Isolation is enforced by a mandatory organization_id filter on
// every query and delete, never by separate collections.
type QdrantIndex struct {
	client   *qdrant.Client
	embedder domain.Embedder
	cfg      QdrantConfig
	log      *zap.Logger
}

// NewQdrantIndex connects to Qdrant over gRPC. It does not provision the
// collection; call EnsureReady before the first upsert or query.
func NewQdrantIndex(cfg QdrantConfig, embedder domain.Embedder, log *zap.Logger) (*QdrantIndex, error) {
	if cfg.Collection == "" {
		cfg.Collection = "org-documents"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", domain.ErrVectorIndex, err)
	}
	return &QdrantIndex{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
		log:      log.Named("qdrant"),
	}, nil
}

// EnsureReady creates the collection if it does not exist and waits until
// Qdrant reports it green. Losing a creation race to another instance is
// fine: we fall through to the readiness poll either way.
func (q *QdrantIndex) EnsureReady(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", domain.ErrVectorIndex, err)
	}
	if !exists {
		q.log.Info("creating collection",
			zap.String("collection", q.cfg.Collection),
			zap.Int("dimension", q.embedder.Dimension()))
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.embedder.Dimension()),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		// losing the creation race to another instance is fine
		if err != nil && status.Code(err) != codes.AlreadyExists {
			return fmt.Errorf("%w: creating collection: %v", domain.ErrVectorIndex, err)
		}
	}
	return q.waitReady(ctx)
}

func (q *QdrantIndex) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(q.cfg.ReadyTimeout)
	for {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
		if err == nil && info.GetStatus() == qdrant.CollectionStatus_Green {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: collection %s not ready within %s",
				domain.ErrVectorIndex, q.cfg.Collection, q.cfg.ReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrVectorIndex, ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

// buildPoints embeds all chunk texts in one batch and pairs each vector
// with its payload.
func (q *QdrantIndex) buildPoints(ctx context.Context, chunks []domain.Chunk) ([]*qdrant.PointStruct, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := q.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, err
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != q.embedder.Dimension() {
			return nil, fmt.Errorf("%w: vector for %s has dimension %d, index expects %d",
				domain.ErrVectorIndex, c.ChunkID, len(vectors[i]), q.embedder.Dimension())
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(c.ChunkID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: chunkPayload(c),
		}
	}
	return points, nil
}

// UpsertChunks embeds the whole batch and writes it in a single upsert, so
// either every chunk lands or none does. Re-upserting a chunk id overwrites
// the stored point.
func (q *QdrantIndex) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	points, err := q.buildPoints(ctx, chunks)
	if err != nil {
		return err
	}
	return q.upsertPoints(ctx, points)
}

func (q *QdrantIndex) upsertPoints(ctx context.Context, points []*qdrant.PointStruct) error {
	if len(points) == 0 {
		return nil
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", domain.ErrVectorIndex, len(points), err)
	}
	q.log.Debug("upserted chunks", zap.Int("count", len(points)))
	return nil
}

// ReplaceDocument embeds the new chunk set first, then removes the
// document's old points and writes the new ones. The previous chunks stay
// searchable until embedding has succeeded.
func (q *QdrantIndex) ReplaceDocument(ctx context.Context, organizationID, documentID string, chunks []domain.Chunk) error {
	points, err := q.buildPoints(ctx, chunks)
	if err != nil {
		return err
	}
	if err := q.DeleteByDocument(ctx, organizationID, documentID); err != nil {
		return err
	}
	return q.upsertPoints(ctx, points)
}

// Query embeds the query text and returns up to topK matches within the
// filter scope, ordered by ascending cosine distance.
func (q *QdrantIndex) Query(ctx context.Context, queryText string, topK int, filter domain.ChunkFilter) ([]domain.ScoredChunk, error) {
	vector, err := q.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return nil, err
	}

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         scopeFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection: %v", domain.ErrVectorIndex, err)
	}

	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		out = append(out, scoredChunkFromPayload(hit.GetPayload(), similarityToDistance(hit.GetScore())))
	}
	return out, nil
}

// DeleteByDocument removes every point of one document inside one
// organization. Deleting a document that was never indexed is a no-op.
func (q *QdrantIndex) DeleteByDocument(ctx context.Context, organizationID, documentID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: scopeFilter(domain.ChunkFilter{
					OrganizationID: organizationID,
					DocumentID:     documentID,
				}),
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", domain.ErrVectorIndex, documentID, err)
	}
	return nil
}

// pointID derives a stable UUID from the human-readable chunk id, since
// Qdrant only accepts UUID or integer point ids. The chunk id itself rides
// in the payload.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// similarityToDistance converts Qdrant's cosine similarity (higher is
// closer) into the cosine distance scores the rest of the pipeline ranks
// and buckets on.
func similarityToDistance(similarity float32) float64 {
	return 1 - float64(similarity)
}

func chunkPayload(c domain.Chunk) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		payloadChunkID:        stringValue(c.ChunkID),
		payloadText:           stringValue(c.Text),
		payloadDocumentID:     stringValue(c.DocumentID),
		payloadOrganizationID: stringValue(c.OrganizationID),
		payloadChunkIndex:     intValue(int64(c.Index)),
		payloadChunkLength:    intValue(int64(c.Length)),
	}
}

func scoredChunkFromPayload(payload map[string]*qdrant.Value, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		ChunkID: payload[payloadChunkID].GetStringValue(),
		Text:    payload[payloadText].GetStringValue(),
		Score:   score,
		Metadata: domain.ChunkMetadata{
			DocumentID:     payload[payloadDocumentID].GetStringValue(),
			OrganizationID: payload[payloadOrganizationID].GetStringValue(),
			ChunkIndex:     int(payload[payloadChunkIndex].GetIntegerValue()),
			ChunkLength:    int(payload[payloadChunkLength].GetIntegerValue()),
		},
	}
}

// scopeFilter builds the tenancy filter. organization_id is always present;
// document_id is ANDed in only when set.
func scopeFilter(filter domain.ChunkFilter) *qdrant.Filter {
	must := []*qdrant.Condition{keywordCondition(payloadOrganizationID, filter.OrganizationID)}
	if filter.DocumentID != "" {
		must = append(must, keywordCondition(payloadDocumentID, filter.DocumentID))
	}
	return &qdrant.Filter{Must: must}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: n}}
}
