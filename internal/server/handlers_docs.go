package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// handleUploadDocuments accepts one or more PDF files under the "files"
// multipart field. Each file is stored, recorded and ingested
// independently; the response reports a per-file outcome.
func (s *Server) handleUploadDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form with files is required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}

	user := currentUser(c)
	results := make([]uploadResult, 0, len(files))
	for _, file := range files {
		results = append(results, s.processUpload(c, user, file))
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

func (s *Server) processUpload(c echo.Context, user domain.User, file *multipart.FileHeader) uploadResult {
	result := uploadResult{Filename: file.Filename, Status: "failed"}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		result.Detail = "only PDF files are supported"
		return result
	}

	data, err := readUpload(file)
	if err != nil {
		result.Detail = "could not read uploaded file"
		return result
	}

	uniqueName := fmt.Sprintf("%s_%d_%s", user.OrganizationID, time.Now().UnixNano(),
		filepath.Base(file.Filename))
	storagePath := filepath.Join(s.cfg.UploadDir, uniqueName)
	if err := os.MkdirAll(s.cfg.UploadDir, 0o750); err != nil {
		s.log.Error("creating upload dir", zap.Error(err))
		result.Detail = "could not store file"
		return result
	}
	if err := os.WriteFile(storagePath, data, 0o640); err != nil {
		s.log.Error("storing upload", zap.Error(err))
		result.Detail = "could not store file"
		return result
	}

	ctx := c.Request().Context()
	doc, err := s.store.CreateDocument(ctx, domain.Document{
		OrganizationID:   user.OrganizationID,
		OriginalFilename: file.Filename,
		UniqueFilename:   uniqueName,
		StoragePath:      storagePath,
	})
	if err != nil {
		s.log.Error("recording document", zap.Error(err))
		result.Detail = "could not record document"
		return result
	}
	result.DocumentID = doc.ID

	chunks, err := s.ingestor.Ingest(ctx, data, doc.ID, user.OrganizationID)
	if err != nil {
		s.log.Warn("ingestion failed",
			zap.String("document_id", doc.ID),
			zap.Error(err))
		result.Detail = "text extraction or indexing failed"
		return result
	}

	result.Status = "indexed"
	result.ChunksIndexed = chunks
	return result
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// handleListDocuments returns the caller's organization's documents.
func (s *Server) handleListDocuments(c echo.Context) error {
	user := currentUser(c)
	docs, err := s.store.ListDocuments(c.Request().Context(), user.OrganizationID)
	if err != nil {
		return httpError(err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}
