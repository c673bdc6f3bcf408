package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
	"github.com/sourabhgrover/org-user-rag/internal/service"
)

// handleSearch runs retrieval scoped to the caller's organization. The
// organization id comes from the authenticated user, never the payload.
func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user := currentUser(c)
	start := time.Now()
	results, err := s.searcher.Search(c.Request().Context(), service.SearchRequest{
		Query:          req.Query,
		OrganizationID: user.OrganizationID,
		DocumentID:     req.DocumentID,
		TopK:           req.TopK,
	})
	if err != nil {
		return httpError(err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	return c.JSON(http.StatusOK, searchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		SearchTimeMS: elapsedMillis(start),
	})
}

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user := currentUser(c)
	start := time.Now()
	answer, err := s.answerer.Ask(c.Request().Context(), service.AskRequest{
		Question:       req.Question,
		OrganizationID: user.OrganizationID,
		DocumentID:     req.DocumentID,
		TopK:           req.TopK,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, askResponse{
		Question:       req.Question,
		Answer:         answer.Answer,
		Confidence:     answer.Confidence,
		ContextSources: answer.ContextSources,
		TotalSources:   len(answer.ContextSources),
		ResponseTimeMS: elapsedMillis(start),
	})
}
