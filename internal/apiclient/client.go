// Package apiclient is a thin HTTP client for the service API, used by the
// terminal tooling.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// Client talks to one server with one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL authenticating with token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Login exchanges credentials for a bearer token.
func Login(baseURL, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(baseURL+"/api/v1/token", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	return out.AccessToken, nil
}

// Search queries the caller's organization's documents.
func (c *Client) Search(query string, topK int) ([]domain.SearchResult, error) {
	var out struct {
		Results []domain.SearchResult `json:"results"`
	}
	err := c.post("/api/v1/search", map[string]any{
		"query": query,
		"top_k": topK,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Ask sends a question and returns the synthesized answer.
func (c *Client) Ask(question string, topK int) (domain.Answer, error) {
	var out struct {
		Answer         string                `json:"answer"`
		Confidence     domain.Relevance      `json:"confidence"`
		ContextSources []domain.SearchResult `json:"context_sources"`
	}
	err := c.post("/api/v1/qa/ask", map[string]any{
		"question": question,
		"top_k":    topK,
	}, &out)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{
		Answer:         out.Answer,
		Confidence:     out.Confidence,
		ContextSources: out.ContextSources,
	}, nil
}

func (c *Client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, bytes.TrimSpace(detail))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
