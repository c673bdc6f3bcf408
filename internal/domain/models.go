package domain

import "time"

// Document is the metadata record of an uploaded file. The pipeline reads it
// to drive ingestion and never mutates it.
type Document struct {
	ID               string    `db:"id" json:"id"`
	OrganizationID   string    `db:"organization_id" json:"organization_id"`
	OriginalFilename string    `db:"name" json:"name"`
	UniqueFilename   string    `db:"unique_filename" json:"unique_filename"`
	StoragePath      string    `db:"path" json:"path"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Chunk is a bounded, overlap-linked segment of a document's extracted text,
// the unit of retrieval. Chunks only live inside the vector index.
type Chunk struct {
	ChunkID        string
	DocumentID     string
	OrganizationID string
	Index          int
	Text           string
	Length         int
}

// ChunkMetadata travels with every indexed chunk and comes back on search
// results. OrganizationID is the tenant-isolation boundary.
type ChunkMetadata struct {
	DocumentID     string `json:"document_id"`
	OrganizationID string `json:"organization_id"`
	ChunkIndex     int    `json:"chunk_index"`
	ChunkLength    int    `json:"chunk_length"`
}

// ChunkFilter scopes index queries. OrganizationID is mandatory; DocumentID
// narrows the search to a single document when set.
type ChunkFilter struct {
	OrganizationID string
	DocumentID     string
}

// ScoredChunk is a raw index hit. Score is a cosine distance: lower means
// more similar.
type ScoredChunk struct {
	ChunkID  string
	Text     string
	Score    float64
	Metadata ChunkMetadata
}

// Relevance is a coarse bucket derived from a distance score.
type Relevance string

const (
	RelevanceHigh   Relevance = "High"
	RelevanceMedium Relevance = "Medium"
	RelevanceLow    Relevance = "Low"
)

// RelevanceForScore maps a cosine distance to a bucket. The thresholds are a
// fixed policy: below 0.3 is High, below 0.6 is Medium, everything else Low.
func RelevanceForScore(score float64) Relevance {
	switch {
	case score < 0.3:
		return RelevanceHigh
	case score < 0.6:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

// SearchResult is a retrieval hit with its derived relevance bucket.
type SearchResult struct {
	Text      string        `json:"text"`
	Score     float64       `json:"score"`
	Relevance Relevance     `json:"relevance"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// Answer is the synthesized response to a question, including the retrieved
// context it was grounded on. Never persisted.
type Answer struct {
	Answer         string         `json:"answer"`
	Confidence     Relevance      `json:"confidence"`
	ContextSources []SearchResult `json:"context_sources"`
	ContextUsed    string         `json:"context_used"`
}

// Organization is a tenant.
type Organization struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User belongs to exactly one organization; that membership scopes every
// search and upload the user performs.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	FirstName      string    `db:"first_name" json:"firstname"`
	LastName       string    `db:"last_name" json:"lastname"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
