// Package httpapi exposes ingestion and querying over HTTP with gin.
//
// Routes:
//
//	POST /athena/ingest  multipart upload (file, source_type, title, description, tags, tenant_id)
//	POST /athena/query   JSON {"query": "...", "tenant_id": "..."}
//	GET  /health         liveness
//
// Both /athena routes require the x-api-key header. Failures render as {"success":false,"error":{...}}.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// HealthStatus is returned by GET /health.
const HealthStatus = "Athena API running"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config configures the HTTP server.
type Config struct {
	// APIKey gates the /athena routes. Required.
	APIKey string

	// DocsPath receives uploaded files.
	DocsPath string

	// MaxUploadMB caps the request body of an upload.
	MaxUploadMB int
}

// ErrNoAPIKey is returned by NewServer when no API key is configured.
var ErrNoAPIKey = errors.New("httpapi: api key is required")

// Server wires the HTTP boundary to the core services.
type Server struct {
	cfg    Config
	ingest driving.IngestService
	query  driving.QueryService
	engine *gin.Engine
}

// NewServer builds the router. The upload directory is created if needed.
func NewServer(cfg Config, ingest driving.IngestService, query driving.QueryService) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.DocsPath == "" {
		return nil, errors.New("httpapi: docs path is required")
	}
	if err := os.MkdirAll(cfg.DocsPath, 0o755); err != nil {
		return nil, fmt.Errorf("httpapi: create docs path: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = domain.DefaultMaxUploadMB
	}
	s := &Server{cfg: cfg, ingest: ingest, query: query}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Athena server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	if logger.IsVerbose() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if logger.IsVerbose() {
		engine.Use(gin.LoggerWithWriter(logger.Writer()))
	}
	engine.Use(gin.CustomRecoveryWithWriter(logger.Writer(), recoverPanic))
	engine.MaxMultipartMemory = 8 << 20

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": HealthStatus})
	})

	athena := engine.Group("/athena", requireAPIKey(s.cfg.APIKey))
	athena.POST("/ingest", s.handleIngest)
	athena.POST("/query", s.handleQuery)

	engine.NoRoute(func(c *gin.Context) {
		renderError(c, &domain.AppError{
			Kind:      domain.KindValidation,
			Message:   "route not found",
			Status:    http.StatusNotFound,
			Expected:  true,
			Component: "http.router",
		})
	})

	return engine
}
