package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// QueryService answers natural-language questions.
type QueryService interface {
	// Answer retrieves context for query and generates an answer.
	// Tenant is recorded in the query log only.
	Answer(ctx context.Context, query, tenant string) (*domain.Answer, error)
}
