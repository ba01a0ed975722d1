package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// Chunker splits text units into bounded, overlapping chunks.
// Output order follows input order and is deterministic for a given
// configuration.
type Chunker interface {
	Split(ctx context.Context, units []domain.TextUnit) ([]domain.TextChunk, error)
}
