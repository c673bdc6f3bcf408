package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/auth"
	"github.com/sourabhgrover/org-user-rag/internal/chunker"
	"github.com/sourabhgrover/org-user-rag/internal/domain"
	"github.com/sourabhgrover/org-user-rag/internal/embedding/hashing"
	"github.com/sourabhgrover/org-user-rag/internal/extractor"
	"github.com/sourabhgrover/org-user-rag/internal/service"
	"github.com/sourabhgrover/org-user-rag/internal/storage"
	"github.com/sourabhgrover/org-user-rag/internal/vectorindex"
)

type cannedGenerator struct{ answer string }

func (g cannedGenerator) Generate(context.Context, string) (string, error) {
	return g.answer, nil
}

type testEnv struct {
	server *httptest.Server
	store  *storage.Store
	index  *vectorindex.MemoryIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index := vectorindex.NewMemoryIndex(hashing.NewEmbedder(64))
	searcher := service.NewSearcher(index, log)
	srv := New(
		Config{Addr: "127.0.0.1:0", UploadDir: t.TempDir()},
		log,
		store,
		auth.NewTokenManager("test-secret", time.Minute),
		service.NewIngestor(extractor.NewPDF(), chunker.NewSplitter(0, 0), index, log),
		searcher,
		service.NewAnswerer(searcher, cannedGenerator{answer: "a grounded answer"}, log),
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: store, index: index}
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

const echoHeaderContentType = "Content-Type"

// bootstrap creates an organization and a user, and returns the org id and
// a valid bearer token.
func (e *testEnv) bootstrap(t *testing.T, orgName, username string) (string, string) {
	t.Helper()
	resp, body := e.postJSON(t, "/api/v1/organizations", "", map[string]string{"name": orgName})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var org domain.Organization
	require.NoError(t, json.Unmarshal(body, &org))

	resp, body = e.postJSON(t, "/api/v1/users", "", map[string]any{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "pass123",
		"organization_id": org.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = e.postJSON(t, "/api/v1/token", "", map[string]string{
		"username": username,
		"password": "pass123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	require.Equal(t, "bearer", tok.TokenType)
	return org.ID, tok.AccessToken
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.bootstrap(t, "acme", "jsmith")

	resp, _ := env.postJSON(t, "/api/v1/token", "", map[string]string{
		"username": "jsmith", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.postJSON(t, "/api/v1/token", "", map[string]string{
		"username": "ghost", "password": "pass123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.postJSON(t, "/api/v1/search", "", map[string]string{"query": "q"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.get(t, "/api/v1/doc", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.postJSON(t, "/api/v1/search", "not-a-token", map[string]string{"query": "q"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	orgID, token := env.bootstrap(t, "acme", "jsmith")

	resp, body := env.get(t, "/api/v1/users/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user domain.User
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "jsmith", user.Username)
	assert.Equal(t, orgID, user.OrganizationID)
	assert.NotContains(t, string(body), "hashed_password")
}

func TestSearchScopedToCallersOrganization(t *testing.T) {
	env := newTestEnv(t)
	orgA, tokenA := env.bootstrap(t, "org-a", "alice")
	orgB, _ := env.bootstrap(t, "org-b", "bob")

	ctx := context.Background()
	require.NoError(t, env.index.UpsertChunks(ctx, []domain.Chunk{
		{ChunkID: "d1_chunk_0", DocumentID: "d1", OrganizationID: orgA, Text: "replication lag tuning", Length: 22},
		{ChunkID: "d2_chunk_0", DocumentID: "d2", OrganizationID: orgB, Text: "replication lag tuning", Length: 22},
	}))

	resp, body := env.postJSON(t, "/api/v1/search", tokenA, map[string]any{
		"query": "replication lag",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result searchResponse
	require.NoError(t, json.Unmarshal(body, &result))
	require.Equal(t, 1, result.TotalResults)
	assert.Equal(t, orgA, result.Results[0].Metadata.OrganizationID)
	assert.NotEmpty(t, result.Results[0].Relevance)
}

func TestSearchEmptyQueryIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.bootstrap(t, "acme", "jsmith")

	resp, _ := env.postJSON(t, "/api/v1/search", token, map[string]string{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskFallsBackWithoutContext(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.bootstrap(t, "acme", "jsmith")

	resp, body := env.postJSON(t, "/api/v1/qa/ask", token, map[string]string{
		"question": "what is in the archive?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result askResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, domain.Relevance("LOW"), result.Confidence)
	assert.Equal(t, 0, result.TotalSources)
	assert.Contains(t, result.Answer, "could not find relevant information")
}

func TestAskUsesIndexedContext(t *testing.T) {
	env := newTestEnv(t)
	orgID, token := env.bootstrap(t, "acme", "jsmith")

	require.NoError(t, env.index.UpsertChunks(context.Background(), []domain.Chunk{
		{ChunkID: "d1_chunk_0", DocumentID: "d1", OrganizationID: orgID, Text: "the vault holds nine artifacts", Length: 30},
	}))

	resp, body := env.postJSON(t, "/api/v1/qa/ask", token, map[string]string{
		"question": "how many artifacts does the vault hold?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result askResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "a grounded answer", result.Answer)
	assert.Equal(t, 1, result.TotalSources)
}

func uploadFiles(t *testing.T, env *testEnv, token string, files map[string][]byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/doc", &buf)
	require.NoError(t, err)
	req.Header.Set(echoHeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return env.do(t, req)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.bootstrap(t, "acme", "jsmith")

	resp, body := uploadFiles(t, env, token, map[string][]byte{
		"notes.txt": []byte("plain text"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result struct {
		Results []uploadResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Results, 1)
	assert.Equal(t, "failed", result.Results[0].Status)
	assert.Contains(t, result.Results[0].Detail, "PDF")
}

func TestUploadReportsExtractionFailurePerFile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.bootstrap(t, "acme", "jsmith")

	resp, body := uploadFiles(t, env, token, map[string][]byte{
		"broken.pdf": []byte("not really a pdf"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result struct {
		Results []uploadResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Results, 1)
	assert.Equal(t, "failed", result.Results[0].Status)
	// the document record exists even though extraction failed
	assert.NotEmpty(t, result.Results[0].DocumentID)

	resp, body = env.get(t, "/api/v1/doc", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs []domain.Document
	require.NoError(t, json.Unmarshal(body, &docs))
	assert.Len(t, docs, 1)
}

func TestUploadRequiresFiles(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.bootstrap(t, "acme", "jsmith")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/doc", &buf)
	require.NoError(t, err)
	req.Header.Set(echoHeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
