package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// Loader extracts plain text from a file of one source type.
type Loader interface {
	// Type returns the source type this loader handles.
	Type() domain.SourceType

	// Load reads the file at path and returns its text units.
	Load(ctx context.Context, path string) ([]domain.TextUnit, error)
}

// LoaderRegistry selects the loader for a source type.
type LoaderRegistry interface {
	// Get returns the loader for t, or domain.ErrUnsupportedType.
	Get(t domain.SourceType) (Loader, error)
}
