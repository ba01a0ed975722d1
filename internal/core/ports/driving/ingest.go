package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// IngestService ingests one file per call.
type IngestService interface {
	// Ingest validates the request, then loads, chunks, embeds and stores the
	// file. Failures are returned as *domain.AppError.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}
