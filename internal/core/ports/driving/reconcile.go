package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// ReconcileService checks that every chunk row has a live vector point.
type ReconcileService interface {
	// Verify lists orphaned chunks without changing anything.
	Verify(ctx context.Context) (*domain.ReconcileReport, error)

	// Repair re-embeds and re-upserts orphaned chunks under their
	// existing point IDs.
	Repair(ctx context.Context) (*domain.ReconcileReport, error)
}
