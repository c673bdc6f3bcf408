// Package server exposes the pipeline over HTTP. Every document and query
// route runs behind bearer-token auth, and the authenticated user's
// organization scopes all data access.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/auth"
	"github.com/sourabhgrover/org-user-rag/internal/domain"
	"github.com/sourabhgrover/org-user-rag/internal/service"
	"github.com/sourabhgrover/org-user-rag/internal/storage"
)

// Config carries the server-specific settings.
type Config struct {
	Addr      string
	UploadDir string
}

// Server wires handlers, middleware and dependencies onto an echo instance.
type Server struct {
	echo     *echo.Echo
	cfg      Config
	log      *zap.Logger
	store    *storage.Store
	tokens   *auth.TokenManager
	ingestor *service.Ingestor
	searcher *service.Searcher
	answerer *service.Answerer
}

// New assembles the HTTP server. It does not start listening.
func New(
	cfg Config,
	log *zap.Logger,
	store *storage.Store,
	tokens *auth.TokenManager,
	ingestor *service.Ingestor,
	searcher *service.Searcher,
	answerer *service.Answerer,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		cfg:      cfg,
		log:      log.Named("http"),
		store:    store,
		tokens:   tokens,
		ingestor: ingestor,
		searcher: searcher,
		answerer: answerer,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())

	e.GET("/health", s.handleHealth)

	v1 := e.Group("/api/v1")
	v1.POST("/token", s.handleToken)
	v1.POST("/organizations", s.handleCreateOrganization)
	v1.GET("/organizations", s.handleListOrganizations)
	v1.POST("/users", s.handleCreateUser)

	authed := v1.Group("", s.requireAuth)
	authed.GET("/users", s.handleListUsers)
	authed.GET("/users/me", s.handleCurrentUser)
	authed.POST("/doc", s.handleUploadDocuments)
	authed.GET("/doc", s.handleListDocuments)
	authed.POST("/search", s.handleSearch)
	authed.POST("/qa/ask", s.handleAsk)

	return s
}

// Start begins serving and blocks until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))
	err := s.echo.Start(s.cfg.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpError converts pipeline failures into status codes without leaking
// provider internals to the client.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProvider),
		errors.Is(err, domain.ErrVectorIndex),
		errors.Is(err, domain.ErrGeneration):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream dependency failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
