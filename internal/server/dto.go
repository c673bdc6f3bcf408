package server

import "github.com/sourabhgrover/org-user-rag/internal/domain"

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type createUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
	Password       string `json:"password"`
	IsAdmin        bool   `json:"is_admin"`
	OrganizationID string `json:"organization_id"`
}

type searchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	TopK       int    `json:"top_k"`
}

type searchResponse struct {
	Query        string                `json:"query"`
	Results      []domain.SearchResult `json:"results"`
	TotalResults int                   `json:"total_results"`
	SearchTimeMS float64               `json:"search_time_ms"`
}

type askRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
	TopK       int    `json:"top_k"`
}

type askResponse struct {
	Question       string                `json:"question"`
	Answer         string                `json:"answer"`
	Confidence     domain.Relevance      `json:"confidence"`
	ContextSources []domain.SearchResult `json:"context_sources"`
	TotalSources   int                   `json:"total_sources"`
	ResponseTimeMS float64               `json:"response_time_ms"`
}

// uploadResult reports the outcome for one file of a multi-file upload.
// One bad file does not fail the rest of the batch.
type uploadResult struct {
	Filename      string `json:"filename"`
	DocumentID    string `json:"document_id,omitempty"`
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Detail        string `json:"detail,omitempty"`
}
