package driven

import (
	"context"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// ExclusionStore persists files excluded from analysis.
// Excluded files are skipped by every later scan of their workspace.
type ExclusionStore interface {
	// Add creates a new exclusion.
	Add(ctx context.Context, exclusion *domain.Exclusion) error

	// Remove deletes an exclusion by ID.
	// Returns domain.ErrNotFound if no such exclusion exists.
	Remove(ctx context.Context, id string) error

	// List returns the exclusions of a workspace ordered by path.
	List(ctx context.Context, workspace string) ([]domain.Exclusion, error)
}
