package ports

import (
	"context"
	"technician-route-service/internal/domain"
)

// Contract for an external service proposing a new job order.
// Implementations are expected to return the same identifiers, permuted;
// callers must not trust anything else in the answer.
type ReorderOracle interface {
	Reorder(ctx context.Context, jobs []domain.JobSummary) ([]domain.JobSummary, error)
}
