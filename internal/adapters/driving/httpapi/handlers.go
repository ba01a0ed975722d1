package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/logger"
)

const (
	componentIngest = "ingest.controller"
	componentQuery  = "query.controller"
)

// QueryRequest is the body of POST /athena/query.
type QueryRequest struct {
	Query  string `json:"query"`
	Tenant string `json:"tenant_id"`
}

func (s *Server) handleIngest(c *gin.Context) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	if c.Request.ContentLength > limit {
		renderError(c, tooLarge(s.cfg.MaxUploadMB))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("file")
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		renderError(c, tooLarge(s.cfg.MaxUploadMB))
		return
	}
	if err != nil {
		renderError(c, domain.ValidationError(componentIngest, "No document file uploaded"))
		return
	}

	sourceType := strings.TrimSpace(c.PostForm("source_type"))
	title := strings.TrimSpace(c.PostForm("title"))
	if sourceType == "" || title == "" {
		renderError(c, domain.ValidationError(componentIngest, "Both source_type and title are required"))
		return
	}

	dst := filepath.Join(s.cfg.DocsPath, UploadName(file.Filename, time.Now()))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		renderError(c, domain.StorageError(componentIngest, "failed to store upload", err))
		return
	}

	result, err := s.ingest.Ingest(c.Request.Context(), domain.IngestRequest{
		SourceType:   sourceType,
		Title:        title,
		Description:  c.PostForm("description"),
		Tags:         c.PostForm("tags"),
		Tenant:       c.PostForm("tenant_id"),
		FilePath:     dst,
		OriginalName: file.Filename,
	})
	if err != nil {
		// No document references a failed upload.
		if rmErr := os.Remove(dst); rmErr != nil {
			logger.Warn("removing failed upload %s: %v", dst, rmErr)
		}
		renderError(c, err)
		return
	}

	renderData(c, http.StatusCreated, result)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, domain.ValidationError(componentQuery, "Query text is required"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		renderError(c, domain.ValidationError(componentQuery, "Query text is required"))
		return
	}

	answer, err := s.query.Answer(c.Request.Context(), req.Query, req.Tenant)
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, answer)
}

func tooLarge(maxMB int) *domain.AppError {
	e := domain.ValidationError(componentIngest, "upload exceeds %d MB", maxMB)
	e.Status = http.StatusRequestEntityTooLarge
	return e
}

// UploadName returns a collision-resistant file name that keeps the
// original extension: <unix-millis>-<random><ext>.
func UploadName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
}
