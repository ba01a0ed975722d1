// Package vector selects the vector index backend from settings.
package vector

import (
	"fmt"

	"github.com/custodia-labs/athena/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/athena/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/athena/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// New creates the configured vector index.
func New(settings domain.VectorIndexSettings) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.VectorBackendQdrant:
		return qdrant.NewIndex(qdrant.Config{
			URL:    settings.URL,
			APIKey: settings.APIKey,
		}), nil

	case domain.VectorBackendChromem:
		idx, err := chromem.NewIndex(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return idx, nil

	case domain.VectorBackendMemory:
		return memory.NewIndex(), nil

	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrVectorIndexUnavailable, settings.Backend)
	}
}
